package regimens

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pill-reminder/internal/platform/dateutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/regimens", func(rr chi.Router) {
		rr.Post("/", createRegimenHandler(svc))
		rr.Put("/", renewRegimenHandler(svc))
		rr.Get("/", findRegimenHandler(svc))
		rr.Get("/{regimenID}", getRegimenHandler(svc))

		rr.Route("/{regimenID}/dosages/{dosageID}", func(dr chi.Router) {
			dr.Get("/medicines", medicinesHandler(svc))
			dr.Post("/stop-today", stopTodayHandler(svc))
			dr.Get("/previous", previousDosageHandler(svc))
			dr.Get("/next", nextDosageHandler(svc))
			dr.Get("/next-time", nextDosageTimeHandler(svc))
		})
	})
}

// regimenRequest es el cuerpo de alta y de renovación.
type regimenRequest struct {
	ExternalID                    string          `json:"external_id" validate:"required"`
	ReminderRepeatWindowInMinutes int             `json:"reminder_repeat_window_in_minutes" validate:"gte=0"`
	ReminderRepeatCount           int             `json:"reminder_repeat_count" validate:"gte=0"`
	Dosages                       []dosageRequest `json:"dosages" validate:"required,min=1,dive"`
}

type dosageRequest struct {
	Hour      int               `json:"hour" validate:"gte=0,lte=23"`
	Minute    int               `json:"minute" validate:"gte=0,lte=59"`
	Medicines []medicineRequest `json:"medicines" validate:"required,min=1,dive"`
}

type medicineRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"` // YYYY-MM-DD
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`   // YYYY-MM-DD
}

type regimenResponse struct {
	ID                            string           `json:"id"`
	ExternalID                    string           `json:"external_id"`
	ReminderRepeatWindowInMinutes int              `json:"reminder_repeat_window_in_minutes"`
	ReminderRepeatCount           int              `json:"reminder_repeat_count"`
	StartDate                     string           `json:"start_date"`
	EndDate                       string           `json:"end_date"`
	Dosages                       []dosageResponse `json:"dosages"`
}

type dosageResponse struct {
	ID                       string             `json:"id"`
	Hour                     int                `json:"hour"`
	Minute                   int                `json:"minute"`
	StartDate                string             `json:"start_date"`
	EndDate                  string             `json:"end_date"`
	ResponseLastCapturedDate *string            `json:"response_last_captured_date,omitempty"`
	Medicines                []medicineResponse `json:"medicines"`
}

type medicineResponse struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type medicinesResponse struct {
	Medicines []string `json:"medicines"`
}

type nextDosageTimeResponse struct {
	NextDosageTime time.Time `json:"next_dosage_time"`
	Hour           int       `json:"hour"`
	Minute         int       `json:"minute"`
}

// createRegimenHandler godoc
// @Summary Crear regimen de pastillas
// @Description Crea el regimen y agenda un recordatorio diario por dosis. Las fechas van en formato YYYY-MM-DD.
// @Tags regimens
// @Accept json
// @Produce json
// @Param payload body regimenRequest true "Regimen con dosis y medicamentos"
// @Success 201 {object} regimenResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 409 {string} string "external id ya tiene regimen"
// @Failure 422 {string} string "dos dosis a la misma hora"
// @Router /regimens [post]
func createRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRegimenRequest(w, r)
		if !ok {
			return
		}

		resp, err := svc.CreateNew(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRegimenResponse(resp))
	}
}

// renewRegimenHandler godoc
// @Summary Renovar regimen de pastillas
// @Description Reemplaza el regimen existente del external id: desagenda los jobs viejos y agenda los nuevos.
// @Tags regimens
// @Accept json
// @Produce json
// @Param payload body regimenRequest true "Regimen nuevo completo"
// @Success 200 {object} regimenResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 404 {string} string "no hay regimen para el external id"
// @Router /regimens [put]
func renewRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRegimenRequest(w, r)
		if !ok {
			return
		}

		resp, err := svc.Renew(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRegimenResponse(resp))
	}
}

// findRegimenHandler godoc
// @Summary Buscar regimen por external id
// @Tags regimens
// @Produce json
// @Param external_id query string true "ID externo (paciente)"
// @Success 200 {object} regimenResponse
// @Failure 400 {string} string "external_id requerido"
// @Failure 404 {string} string "not found"
// @Router /regimens [get]
func findRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalID := strings.TrimSpace(r.URL.Query().Get("external_id"))
		if externalID == "" {
			http.Error(w, "external_id is required", http.StatusBadRequest)
			return
		}

		resp, err := svc.GetPillRegimenByExternalID(r.Context(), externalID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRegimenResponse(resp))
	}
}

// getRegimenHandler godoc
// @Summary Obtener regimen
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID del regimen"
// @Success 200 {object} regimenResponse
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID} [get]
func getRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.GetPillRegimen(r.Context(), chi.URLParam(r, "regimenID"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRegimenResponse(resp))
	}
}

// medicinesHandler godoc
// @Summary Medicamentos de una dosis
// @Tags dosages
// @Produce json
// @Param regimenID path string true "ID del regimen"
// @Param dosageID path string true "ID de la dosis"
// @Success 200 {object} medicinesResponse
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID}/dosages/{dosageID}/medicines [get]
func medicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := svc.MedicinesFor(r.Context(), chi.URLParam(r, "regimenID"), chi.URLParam(r, "dosageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if names == nil {
			names = []string{}
		}

		writeJSON(w, http.StatusOK, medicinesResponse{Medicines: names})
	}
}

// stopTodayHandler godoc
// @Summary Detener los recordatorios de hoy
// @Description Registra la respuesta del paciente para hoy. El job diario sigue agendado.
// @Tags dosages
// @Param regimenID path string true "ID del regimen"
// @Param dosageID path string true "ID de la dosis"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID}/dosages/{dosageID}/stop-today [post]
func stopTodayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.StopTodaysReminders(r.Context(), chi.URLParam(r, "regimenID"), chi.URLParam(r, "dosageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// previousDosageHandler godoc
// @Summary Dosis anterior
// @Description Dosis anterior en el orden circular del día (la anterior a la primera es la última).
// @Tags dosages
// @Produce json
// @Param regimenID path string true "ID del regimen"
// @Param dosageID path string true "ID de la dosis actual"
// @Success 200 {object} dosageResponse
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID}/dosages/{dosageID}/previous [get]
func previousDosageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetPreviousDosage(r.Context(), chi.URLParam(r, "regimenID"), chi.URLParam(r, "dosageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDosageResponseJSON(d))
	}
}

// nextDosageHandler godoc
// @Summary Dosis siguiente
// @Tags dosages
// @Produce json
// @Param regimenID path string true "ID del regimen"
// @Param dosageID path string true "ID de la dosis actual"
// @Success 200 {object} dosageResponse
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID}/dosages/{dosageID}/next [get]
func nextDosageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetNextDosage(r.Context(), chi.URLParam(r, "regimenID"), chi.URLParam(r, "dosageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDosageResponseJSON(d))
	}
}

// nextDosageTimeHandler godoc
// @Summary Hora de la siguiente dosis
// @Description Fecha de hoy combinada con la hora de la siguiente dosis.
// @Tags dosages
// @Produce json
// @Param regimenID path string true "ID del regimen"
// @Param dosageID path string true "ID de la dosis actual"
// @Success 200 {object} nextDosageTimeResponse
// @Failure 404 {string} string "not found"
// @Router /regimens/{regimenID}/dosages/{dosageID}/next-time [get]
func nextDosageTimeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetNextDosageTime(r.Context(), chi.URLParam(r, "regimenID"), chi.URLParam(r, "dosageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nextDosageTimeResponse{NextDosageTime: t, Hour: t.Hour(), Minute: t.Minute()})
	}
}

func decodeRegimenRequest(w http.ResponseWriter, r *http.Request) (PillRegimenRequest, bool) {
	var req regimenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return PillRegimenRequest{}, false
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return PillRegimenRequest{}, false
	}

	out := PillRegimenRequest{
		ExternalID:                    req.ExternalID,
		ReminderRepeatWindowInMinutes: req.ReminderRepeatWindowInMinutes,
		ReminderRepeatCount:           req.ReminderRepeatCount,
		Dosages:                       make([]DosageRequest, 0, len(req.Dosages)),
	}
	for _, d := range req.Dosages {
		dr := DosageRequest{Hour: d.Hour, Minute: d.Minute, Medicines: make([]MedicineRequest, 0, len(d.Medicines))}
		for _, m := range d.Medicines {
			// el validator ya garantizó el formato
			start, _ := dateutil.ParseDate(m.StartDate, time.UTC)
			end, _ := dateutil.ParseDate(m.EndDate, time.UTC)
			dr.Medicines = append(dr.Medicines, MedicineRequest{Name: m.Name, StartDate: start, EndDate: end})
		}
		out.Dosages = append(out.Dosages, dr)
	}
	return out, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "min":
		return fe.Namespace() + " is required"
	case "datetime":
		return fe.Namespace() + " must be YYYY-MM-DD"
	default:
		return fe.Namespace() + " is out of range"
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateExternalID):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrDataIntegrity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRegimenResponse(p PillRegimenResponse) regimenResponse {
	dosages := make([]dosageResponse, 0, len(p.Dosages))
	for _, d := range p.Dosages {
		dosages = append(dosages, toDosageResponseJSON(d))
	}
	return regimenResponse{
		ID:                            p.PillRegimenID,
		ExternalID:                    p.ExternalID,
		ReminderRepeatWindowInMinutes: p.ReminderRepeatWindowInMinutes,
		ReminderRepeatCount:           p.ReminderRepeatCount,
		StartDate:                     p.StartDate.Format(dateutil.Layout),
		EndDate:                       p.EndDate.Format(dateutil.Layout),
		Dosages:                       dosages,
	}
}

func toDosageResponseJSON(d DosageResponse) dosageResponse {
	meds := make([]medicineResponse, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		meds = append(meds, medicineResponse{
			Name:      m.Name,
			StartDate: m.StartDate.Format(dateutil.Layout),
			EndDate:   m.EndDate.Format(dateutil.Layout),
		})
	}
	out := dosageResponse{
		ID:        d.DosageID,
		Hour:      d.DosageHour,
		Minute:    d.DosageMinute,
		StartDate: d.StartDate.Format(dateutil.Layout),
		EndDate:   d.EndDate.Format(dateutil.Layout),
		Medicines: meds,
	}
	if d.ResponseLastCapturedDate != nil {
		s := d.ResponseLastCapturedDate.Format(dateutil.Layout)
		out.ResponseLastCapturedDate = &s
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

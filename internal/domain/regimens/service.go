package regimens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pill-reminder/internal/platform/dateutil"
	"pill-reminder/internal/platform/logger"
	"pill-reminder/internal/platform/metrics"
)

// Service orquesta modelo + store + scheduler. No guarda estado entre llamadas
// y no toma locks: create/renew concurrentes para el mismo external id deben
// serializarse afuera.
type Service struct {
	repo      Repository
	scheduler Scheduler

	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(repo Repository, scheduler Scheduler, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		scheduler: scheduler,
		log:       logger.Nop(),
		now:       dateutil.SystemClock,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNew construye el regimen, lo persiste y registra un job por dosis.
// Si falla a mitad de camino el error se propaga tal cual, sin rollback.
func (s *Service) CreateNew(ctx context.Context, req PillRegimenRequest) (PillRegimenResponse, error) {
	defer s.metrics.ObserveLifecycle("create", time.Now())

	p, err := s.build(req)
	if err != nil {
		return PillRegimenResponse{}, err
	}
	if err := s.persistAndSchedule(ctx, p); err != nil {
		return PillRegimenResponse{}, err
	}

	s.log.Info("pill regimen created", map[string]any{
		"regimen_id":  p.ID,
		"external_id": p.ExternalID,
		"dosages":     len(p.Dosages),
	})
	return toPillRegimenResponse(p), nil
}

// Renew reemplaza el regimen del external id: primero retira todos los jobs
// viejos y el agregado, después crea el nuevo. No es transaccional: si el
// proceso cae entre ambas fases el paciente queda sin recordatorios hasta
// reintentar, pero nunca con dos generaciones activas.
func (s *Service) Renew(ctx context.Context, req PillRegimenRequest) (PillRegimenResponse, error) {
	defer s.metrics.ObserveLifecycle("renew", time.Now())

	// Validar antes de tocar nada.
	p, err := s.build(req)
	if err != nil {
		return PillRegimenResponse{}, err
	}

	existing, err := s.repo.FindByExternalID(ctx, p.ExternalID)
	if err != nil {
		return PillRegimenResponse{}, fmt.Errorf("find regimen for external id %q: %w", p.ExternalID, err)
	}

	if err := s.retire(ctx, existing); err != nil {
		return PillRegimenResponse{}, err
	}
	if err := s.persistAndSchedule(ctx, p); err != nil {
		return PillRegimenResponse{}, err
	}

	s.metrics.IncRegimenRenewed()
	s.log.Info("pill regimen renewed", map[string]any{
		"external_id":    p.ExternalID,
		"old_regimen_id": existing.ID,
		"regimen_id":     p.ID,
		"dosages":        len(p.Dosages),
	})
	return toPillRegimenResponse(p), nil
}

// StopTodaysReminders delega en el store; el job recurrente sigue intacto.
func (s *Service) StopTodaysReminders(ctx context.Context, regimenID, dosageID string) error {
	return s.repo.StopTodaysReminders(ctx, regimenID, dosageID)
}

func (s *Service) MedicinesFor(ctx context.Context, regimenID, dosageID string) ([]string, error) {
	return s.repo.MedicinesFor(ctx, regimenID, dosageID)
}

func (s *Service) GetPillRegimen(ctx context.Context, regimenID string) (PillRegimenResponse, error) {
	p, err := s.get(ctx, regimenID)
	if err != nil {
		return PillRegimenResponse{}, err
	}
	return toPillRegimenResponse(p), nil
}

func (s *Service) GetPillRegimenByExternalID(ctx context.Context, externalID string) (PillRegimenResponse, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return PillRegimenResponse{}, fmt.Errorf("%w: external id required", ErrInvalidInput)
	}
	p, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return PillRegimenResponse{}, fmt.Errorf("find regimen for external id %q: %w", externalID, err)
	}
	return toPillRegimenResponse(p), nil
}

func (s *Service) GetPreviousDosage(ctx context.Context, regimenID, currentDosageID string) (DosageResponse, error) {
	p, current, err := s.resolve(ctx, regimenID, currentDosageID)
	if err != nil {
		return DosageResponse{}, err
	}
	prev, err := p.PreviousDosage(current)
	if err != nil {
		return DosageResponse{}, err
	}
	return toDosageResponse(prev), nil
}

func (s *Service) GetNextDosage(ctx context.Context, regimenID, currentDosageID string) (DosageResponse, error) {
	p, current, err := s.resolve(ctx, regimenID, currentDosageID)
	if err != nil {
		return DosageResponse{}, err
	}
	next, err := p.NextDosage(current)
	if err != nil {
		return DosageResponse{}, err
	}
	return toDosageResponse(next), nil
}

// GetNextDosageTime combina la hora de la siguiente dosis con la fecha de hoy,
// aunque el regimen ya haya terminado.
func (s *Service) GetNextDosageTime(ctx context.Context, regimenID, currentDosageID string) (time.Time, error) {
	p, current, err := s.resolve(ctx, regimenID, currentDosageID)
	if err != nil {
		return time.Time{}, err
	}
	next, err := p.NextDosage(current)
	if err != nil {
		return time.Time{}, err
	}
	t := next.DosageTime()
	return dateutil.AtTime(s.now(), t.Hour, t.Minute), nil
}

// RestoreSchedules vuelve a registrar los jobs de todos los regimenes
// guardados, con los mismos job ids. Se usa al arrancar con un store
// persistente y un scheduler en memoria.
func (s *Service) RestoreSchedules(ctx context.Context) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list regimens: %w", err)
	}
	jobs := 0
	for _, p := range all {
		for _, d := range p.SortedDosages() {
			if d.JobID == "" {
				d.JobID = d.ID
			}
			if err := s.scheduler.ScheduleJob(ctx, cronJobFor(p, d)); err != nil {
				return jobs, fmt.Errorf("restore job for regimen %q dosage %s: %w", p.ID, d.Time, err)
			}
			s.metrics.IncJobScheduled()
			jobs++
		}
	}
	s.log.Info("schedules restored", map[string]any{"regimens": len(all), "jobs": jobs})
	return jobs, nil
}

// ReminderStatus es lo que necesita el dispatcher para decidir si avisar.
type ReminderStatus struct {
	Due        bool
	Reason     string
	ExternalID string
	DosageTime DosageTime
	Medicines  []string

	// Cadencia de repetición mientras no se capture la respuesta del día.
	RepeatCount  int
	RepeatWindow time.Duration
}

const (
	ReasonDue              = "due"
	ReasonResponseCaptured = "response captured today"
	ReasonOutsideWindow    = "outside regimen window"
)

// CheckReminder decide si el disparo de hoy para la dosis debe avisarse.
func (s *Service) CheckReminder(ctx context.Context, regimenID, dosageID string) (ReminderStatus, error) {
	p, d, err := s.resolve(ctx, regimenID, dosageID)
	if err != nil {
		return ReminderStatus{}, err
	}
	now := s.now()
	st := ReminderStatus{
		ExternalID: p.ExternalID,
		DosageTime: d.DosageTime(),
		Medicines:  d.MedicineNames(),

		RepeatCount:  p.ReminderRepeatCount,
		RepeatWindow: time.Duration(p.ReminderRepeatWindowInMinutes) * time.Minute,
	}
	switch {
	case !p.IsActiveOn(now):
		st.Reason = ReasonOutsideWindow
	case d.IsTodaysResponseCaptured(now):
		st.Reason = ReasonResponseCaptured
	default:
		st.Due = true
		st.Reason = ReasonDue
	}
	return st, nil
}

func (s *Service) build(req PillRegimenRequest) (*PillRegimen, error) {
	p, err := NewPillRegimen(req.ExternalID, req.ReminderRepeatWindowInMinutes, req.ReminderRepeatCount, req.dosageSpecs())
	if err != nil {
		return nil, err
	}
	p.AssignIdentity(s.newID)
	return p, nil
}

func (s *Service) persistAndSchedule(ctx context.Context, p *PillRegimen) error {
	if err := s.repo.Add(ctx, p); err != nil {
		return fmt.Errorf("add regimen for external id %q: %w", p.ExternalID, err)
	}
	s.metrics.IncRegimenCreated()

	for _, d := range p.SortedDosages() {
		job := cronJobFor(p, d)
		if err := s.scheduler.ScheduleJob(ctx, job); err != nil {
			return fmt.Errorf("schedule job for dosage %s: %w", d.Time, err)
		}
		s.metrics.IncJobScheduled()
		s.log.Debug("dosage job scheduled", map[string]any{
			"regimen_id": p.ID,
			"dosage_id":  d.ID,
			"job_id":     d.JobID,
			"cron":       job.CronExpression,
			"start":      job.StartDate.Format(dateutil.Layout),
			"end":        job.EndDate.Format(dateutil.Layout),
		})
	}
	return nil
}

// retire desregistra el job de cada dosis y después borra el agregado.
func (s *Service) retire(ctx context.Context, p *PillRegimen) error {
	for _, d := range p.Dosages {
		jobID := d.JobID
		if jobID == "" {
			// regimens guardados sin job id usaban el id de la dosis
			jobID = d.ID
		}
		if err := s.scheduler.UnscheduleJob(ctx, jobID); err != nil {
			return fmt.Errorf("unschedule job %q: %w", jobID, err)
		}
		s.metrics.IncJobUnscheduled()
	}
	if err := s.repo.Remove(ctx, p); err != nil {
		return fmt.Errorf("remove regimen %q: %w", p.ID, err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, regimenID string) (*PillRegimen, error) {
	p, err := s.repo.Get(ctx, regimenID)
	if err != nil {
		return nil, fmt.Errorf("get regimen %q: %w", regimenID, err)
	}
	return p, nil
}

func (s *Service) resolve(ctx context.Context, regimenID, dosageID string) (*PillRegimen, *Dosage, error) {
	p, err := s.get(ctx, regimenID)
	if err != nil {
		return nil, nil, err
	}
	d, err := p.GetDosage(dosageID)
	if err != nil {
		return nil, nil, err
	}
	return p, d, nil
}

// cronJobFor: todas las dosis usan la ventana derivada del regimen completo,
// no la de sus propios medicamentos.
func cronJobFor(p *PillRegimen, d *Dosage) CronJob {
	return CronJob{
		Subject:        ReminderSubject,
		CronExpression: DailyCronExpression(d.Time),
		StartDate:      p.StartDate(),
		EndDate:        p.EndDate(),
		Params: map[string]string{
			EventKeyJobID:         d.JobID,
			EventKeyPillRegimenID: p.ID,
			EventKeyDosageID:      d.ID,
			EventKeyExternalID:    p.ExternalID,
		},
	}
}

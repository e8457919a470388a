package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pill-reminder/internal/adapters/scheduler/cronjobs"
	"pill-reminder/internal/adapters/storage/memory"
	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/eventbus"
	"pill-reminder/internal/platform/metrics"
	"pill-reminder/internal/router"
)

var now = time.Date(2025, 12, 22, 9, 0, 0, 0, time.UTC)

type app struct {
	ts  *httptest.Server
	gw  *cronjobs.Gateway
	reg *prometheus.Registry
}

func newApp(t *testing.T) *app {
	t.Helper()

	clock := func() time.Time { return now }
	reg := prometheus.NewRegistry()
	gw := cronjobs.New(eventbus.New(), cronjobs.WithLocation(time.UTC), cronjobs.WithClock(clock))
	svc := regimens.NewService(memory.NewRegimensRepo(clock), gw,
		regimens.WithClock(clock),
		regimens.WithMetrics(metrics.New(reg)),
	)

	ts := httptest.NewServer(router.NewRouter(router.Options{
		Regimens: svc,
		Jobs:     gw,
		Gatherer: reg,
	}))
	t.Cleanup(ts.Close)
	return &app{ts: ts, gw: gw, reg: reg}
}

type medicine struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type dosage struct {
	ID                       string     `json:"id"`
	Hour                     int        `json:"hour"`
	Minute                   int        `json:"minute"`
	StartDate                string     `json:"start_date"`
	EndDate                  string     `json:"end_date"`
	ResponseLastCapturedDate *string    `json:"response_last_captured_date"`
	Medicines                []medicine `json:"medicines"`
}

type regimen struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Dosages    []dosage `json:"dosages"`
}

func twoDosagePayload(externalID string) map[string]any {
	return map[string]any{
		"external_id":                       externalID,
		"reminder_repeat_window_in_minutes": 5,
		"reminder_repeat_count":             20,
		"dosages": []map[string]any{
			{"hour": 20, "minute": 5, "medicines": []map[string]any{
				{"name": "paracetamol", "start_date": "2025-12-22", "end_date": "2025-12-24"},
				{"name": "ibuprofeno", "start_date": "2025-12-23", "end_date": "2025-12-26"},
			}},
			{"hour": 8, "minute": 30, "medicines": []map[string]any{
				{"name": "omeprazol", "start_date": "2025-12-22", "end_date": "2025-12-31"},
			}},
		},
	}
}

func TestHTTP_EndToEnd_RegimenLifecycle(t *testing.T) {
	a := newApp(t)

	// 1) Alta
	var created regimen
	{
		st, body := doReq(t, a.ts.URL, "POST", "/regimens", twoDosagePayload("patient-1"))
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create regimen, got %d body=%s", st, string(body))
		}
		decode(t, body, &created)
	}
	if created.ID == "" || created.StartDate != "2025-12-22" || created.EndDate != "2025-12-31" {
		t.Fatalf("unexpected regimen: %+v", created)
	}
	if len(created.Dosages) != 2 || created.Dosages[0].Hour != 8 || created.Dosages[1].Hour != 20 {
		t.Fatalf("dosages should come sorted by time: %+v", created.Dosages)
	}
	morning, evening := created.Dosages[0], created.Dosages[1]

	// 2) Un job por dosis, todos con la ventana del regimen completo
	jobs := a.gw.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	{
		st, body := doReq(t, a.ts.URL, "GET", "/scheduler/jobs", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list jobs, got %d", st)
		}
		var listed []struct {
			StartDate string            `json:"start_date"`
			EndDate   string            `json:"end_date"`
			Params    map[string]string `json:"params"`
		}
		decode(t, body, &listed)
		for _, j := range listed {
			if j.StartDate != "2025-12-22" || j.EndDate != "2025-12-31" {
				t.Fatalf("job window should be the regimen window: %+v", j)
			}
			if j.Params[regimens.EventKeyPillRegimenID] != created.ID || j.Params[regimens.EventKeyExternalID] != "patient-1" {
				t.Fatalf("job params missing correlation ids: %+v", j.Params)
			}
		}
	}

	// 3) Lecturas
	{
		st, body := doReq(t, a.ts.URL, "GET", "/regimens/"+created.ID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get regimen, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, a.ts.URL, "GET", "/regimens?external_id=patient-1", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 find by external id, got %d body=%s", st, string(body))
		}
		var got regimen
		decode(t, body, &got)
		if got.ID != created.ID {
			t.Fatalf("expected %s, got %s", created.ID, got.ID)
		}
	}
	{
		st, body := doReq(t, a.ts.URL, "GET", dosagePath(created.ID, evening.ID, "medicines"), nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 medicines, got %d body=%s", st, string(body))
		}
		var got struct {
			Medicines []string `json:"medicines"`
		}
		decode(t, body, &got)
		if strings.Join(got.Medicines, ",") != "paracetamol,ibuprofeno" {
			t.Fatalf("unexpected medicines %v", got.Medicines)
		}
	}

	// 4) Orden circular
	if got := getDosage(t, a.ts.URL, dosagePath(created.ID, evening.ID, "next")); got.ID != morning.ID {
		t.Fatalf("next of evening should wrap to morning, got %s", got.ID)
	}
	if got := getDosage(t, a.ts.URL, dosagePath(created.ID, morning.ID, "previous")); got.ID != evening.ID {
		t.Fatalf("previous of morning should wrap to evening, got %s", got.ID)
	}
	{
		st, body := doReq(t, a.ts.URL, "GET", dosagePath(created.ID, morning.ID, "next-time"), nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 next-time, got %d body=%s", st, string(body))
		}
		var got struct {
			NextDosageTime time.Time `json:"next_dosage_time"`
			Hour           int       `json:"hour"`
			Minute         int       `json:"minute"`
		}
		decode(t, body, &got)
		want := time.Date(2025, 12, 22, 20, 5, 0, 0, time.UTC)
		if !got.NextDosageTime.Equal(want) || got.Hour != 20 || got.Minute != 5 {
			t.Fatalf("expected %s, got %+v", want, got)
		}
	}

	// 5) Stop-today marca la dosis, el job sigue
	{
		st, body := doReq(t, a.ts.URL, "POST", dosagePath(created.ID, morning.ID, "stop-today"), nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 stop-today, got %d body=%s", st, string(body))
		}
		_, body = doReq(t, a.ts.URL, "GET", "/regimens/"+created.ID, nil)
		var got regimen
		decode(t, body, &got)
		if got.Dosages[0].ResponseLastCapturedDate == nil || *got.Dosages[0].ResponseLastCapturedDate != "2025-12-22" {
			t.Fatalf("expected morning dosage captured today: %+v", got.Dosages[0])
		}
		if len(a.gw.Jobs()) != 2 {
			t.Fatalf("stop-today must not touch the scheduler")
		}
	}

	// 6) Un segundo alta para el mismo paciente es conflicto
	{
		st, _ := doReq(t, a.ts.URL, "POST", "/regimens", twoDosagePayload("patient-1"))
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate external id, got %d", st)
		}
	}

	// 7) Renovar reemplaza agregado y jobs
	oldJobs := map[string]bool{}
	for _, j := range a.gw.Jobs() {
		oldJobs[j.JobID] = true
	}
	var renewed regimen
	{
		st, body := doReq(t, a.ts.URL, "PUT", "/regimens", map[string]any{
			"external_id": "patient-1",
			"dosages": []map[string]any{
				{"hour": 12, "minute": 0, "medicines": []map[string]any{
					{"name": "amoxicilina", "start_date": "2025-12-22", "end_date": "2025-12-29"},
				}},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 renew, got %d body=%s", st, string(body))
		}
		decode(t, body, &renewed)
	}
	if renewed.ID == created.ID {
		t.Fatalf("renew should create a new regimen id")
	}
	jobs = a.gw.Jobs()
	if len(jobs) != 1 || oldJobs[jobs[0].JobID] {
		t.Fatalf("expected exactly one fresh job after renew, got %+v", jobs)
	}
	{
		st, _ := doReq(t, a.ts.URL, "GET", "/regimens/"+created.ID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for the replaced regimen, got %d", st)
		}
	}

	// 8) Métricas
	{
		st, body := doReq(t, a.ts.URL, "GET", "/metrics", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 metrics, got %d", st)
		}
		if !strings.Contains(string(body), "pillreminder_regimens_created_total 2") {
			t.Fatalf("expected two created regimens in metrics, body=%s", string(body))
		}
		if !strings.Contains(string(body), "pillreminder_regimens_renewed_total 1") {
			t.Fatalf("expected one renewal in metrics")
		}
	}
}

func TestHTTP_Errors(t *testing.T) {
	a := newApp(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"invalid json", "POST", "/regimens", "not-an-object", http.StatusBadRequest},
		{"no dosages", "POST", "/regimens", map[string]any{"external_id": "p", "dosages": []any{}}, http.StatusBadRequest},
		{"dosage without medicines", "POST", "/regimens", map[string]any{
			"external_id": "p",
			"dosages":     []map[string]any{{"hour": 9, "minute": 0, "medicines": []any{}}},
		}, http.StatusBadRequest},
		{"bad date", "POST", "/regimens", map[string]any{
			"external_id": "p",
			"dosages": []map[string]any{{"hour": 9, "medicines": []map[string]any{
				{"name": "m", "start_date": "22/12/2025", "end_date": "2025-12-23"},
			}}},
		}, http.StatusBadRequest},
		{"inverted window", "POST", "/regimens", map[string]any{
			"external_id": "p",
			"dosages": []map[string]any{{"hour": 9, "medicines": []map[string]any{
				{"name": "m", "start_date": "2025-12-25", "end_date": "2025-12-23"},
			}}},
		}, http.StatusBadRequest},
		{"hour out of range", "POST", "/regimens", map[string]any{
			"external_id": "p",
			"dosages": []map[string]any{{"hour": 24, "medicines": []map[string]any{
				{"name": "m", "start_date": "2025-12-22", "end_date": "2025-12-23"},
			}}},
		}, http.StatusBadRequest},
		{"duplicate dosage time", "POST", "/regimens", map[string]any{
			"external_id": "p",
			"dosages": []map[string]any{
				{"hour": 9, "medicines": []map[string]any{{"name": "a", "start_date": "2025-12-22", "end_date": "2025-12-23"}}},
				{"hour": 9, "medicines": []map[string]any{{"name": "b", "start_date": "2025-12-22", "end_date": "2025-12-23"}}},
			},
		}, http.StatusUnprocessableEntity},
		{"renew unknown patient", "PUT", "/regimens", twoDosagePayload("nobody"), http.StatusNotFound},
		{"unknown regimen", "GET", "/regimens/missing", nil, http.StatusNotFound},
		{"find without external id", "GET", "/regimens", nil, http.StatusBadRequest},
		{"unknown external id", "GET", "/regimens?external_id=nobody", nil, http.StatusNotFound},
		{"medicines of unknown dosage", "GET", dosagePath("missing", "missing", "medicines"), nil, http.StatusNotFound},
		{"stop-today unknown dosage", "POST", dosagePath("missing", "missing", "stop-today"), nil, http.StatusNotFound},
		{"next-time unknown regimen", "GET", dosagePath("missing", "missing", "next-time"), nil, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, a.ts.URL, tc.method, tc.path, tc.body)
			if st != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, st, string(body))
			}
		})
	}

	if len(a.gw.Jobs()) != 0 {
		t.Fatalf("rejected requests must not schedule jobs")
	}
}

func TestHTTP_HealthAndDocs(t *testing.T) {
	a := newApp(t)

	st, body := doReq(t, a.ts.URL, "GET", "/health", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", st, string(body))
	}

	st, body = doReq(t, a.ts.URL, "GET", "/swagger/doc.json", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 swagger doc, got %d", st)
	}
	if !strings.Contains(string(body), "/regimens/{regimenID}/dosages/{dosageID}/next-time") {
		t.Fatalf("swagger doc missing regimen routes")
	}
}

func dosagePath(regimenID, dosageID, action string) string {
	return "/regimens/" + regimenID + "/dosages/" + dosageID + "/" + action
}

func getDosage(t *testing.T, baseURL, path string) dosage {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", path, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 %s, got %d body=%s", path, st, string(body))
	}
	var d dosage
	decode(t, body, &d)
	return d
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}

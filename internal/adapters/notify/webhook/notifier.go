// Package webhook entrega los recordatorios vencidos al subsistema de
// notificaciones por HTTP. Un intento por aviso, sin reintentos.
package webhook

import (
	"context"
	"fmt"
	"time"

	"pill-reminder/internal/platform/httpclient"
	"pill-reminder/internal/reminders"
)

var _ reminders.Notifier = (*Notifier)(nil)

type Notifier struct {
	client  *httpclient.Client
	url     string
	headers map[string]string
}

// New valida url antes de arrancar para no descubrir el error en el
// primer disparo.
func New(client *httpclient.Client, url string, headers map[string]string) (*Notifier, error) {
	if client == nil {
		client = httpclient.New(httpclient.DefaultTimeout)
	}
	if err := httpclient.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("webhook notifier: %w", err)
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Notifier{client: client, url: url, headers: h}, nil
}

type payload struct {
	JobID         string    `json:"job_id"`
	PillRegimenID string    `json:"pill_regimen_id"`
	DosageID      string    `json:"dosage_id"`
	ExternalID    string    `json:"external_id"`
	DosageHour    int       `json:"dosage_hour"`
	DosageMinute  int       `json:"dosage_minute"`
	Medicines     []string  `json:"medicines"`
	Attempt       int       `json:"attempt"`
	FiredAt       time.Time `json:"fired_at"`
}

func (n *Notifier) Notify(ctx context.Context, r reminders.Reminder) error {
	meds := r.Medicines
	if meds == nil {
		meds = []string{}
	}
	body := payload{
		JobID:         r.JobID,
		PillRegimenID: r.RegimenID,
		DosageID:      r.DosageID,
		ExternalID:    r.ExternalID,
		DosageHour:    r.DosageTime.Hour,
		DosageMinute:  r.DosageTime.Minute,
		Medicines:     meds,
		Attempt:       r.Attempt,
		FiredAt:       r.FiredAt,
	}
	if err := n.client.PostJSON(ctx, n.url, n.headers, body); err != nil {
		return fmt.Errorf("notify %s/%s: %w", r.RegimenID, r.DosageID, err)
	}
	return nil
}

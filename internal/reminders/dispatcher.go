// Package reminders consume los disparos del scheduler y decide, contra el
// estado actual del regimen, si corresponde avisar al paciente.
package reminders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/eventbus"
	"pill-reminder/internal/platform/dateutil"
	"pill-reminder/internal/platform/logger"
	"pill-reminder/internal/platform/metrics"
)

const (
	OutcomeDue     = "due"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Checker lo implementa *regimens.Service.
type Checker interface {
	CheckReminder(ctx context.Context, regimenID, dosageID string) (regimens.ReminderStatus, error)
}

// Repeater agenda disparos únicos; lo implementa *cronjobs.Gateway.
type Repeater interface {
	ScheduleOnce(ctx context.Context, key string, at time.Time, subject string, params map[string]string) error
	CancelOnce(prefix string) int
}

// Reminder es un aviso listo para entregar. Attempt es 0 para el disparo
// diario y 1..N para las repeticiones.
type Reminder struct {
	JobID      string
	RegimenID  string
	DosageID   string
	ExternalID string
	DosageTime regimens.DosageTime
	Medicines  []string
	Attempt    int
	FiredAt    time.Time
}

// Notifier entrega el aviso. La entrega a dispositivos queda fuera de este
// servicio; LogNotifier sólo lo registra.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

type LogNotifier struct {
	Log logger.Logger
}

func (n LogNotifier) Notify(ctx context.Context, r Reminder) error {
	n.Log.Info("pill reminder due", map[string]any{
		"external_id": r.ExternalID,
		"regimen_id":  r.RegimenID,
		"dosage_id":   r.DosageID,
		"dosage_time": r.DosageTime.String(),
		"medicines":   r.Medicines,
		"attempt":     r.Attempt,
		"fired_at":    r.FiredAt,
	})
	return nil
}

type Dispatcher struct {
	bus      eventbus.Bus
	checker  Checker
	notifier Notifier
	repeater Repeater
	log      logger.Logger
	metrics  *metrics.Metrics
	buffer   int
}

type Option func(*Dispatcher)

func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithRepeater habilita las repeticiones de cada aviso según la cadencia
// del regimen. Sin repeater sólo se avisa el disparo diario.
func WithRepeater(r Repeater) Option {
	return func(d *Dispatcher) { d.repeater = r }
}

func WithBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.buffer = n
		}
	}
}

func NewDispatcher(bus eventbus.Bus, checker Checker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bus:     bus,
		checker: checker,
		log:     logger.Nop(),
		buffer:  64,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = LogNotifier{Log: d.log}
	}
	return d
}

// Run procesa eventos hasta que se cancele ctx. Devuelve nil al cancelar.
func (d *Dispatcher) Run(ctx context.Context) error {
	ch, unsubscribe := d.bus.Subscribe(d.buffer)
	defer unsubscribe()

	d.log.Info("reminder dispatcher started", nil)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("reminder dispatcher stopped", nil)
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if e.Subject != regimens.ReminderSubject {
				continue
			}
			d.metrics.IncReminder(d.Handle(ctx, e))
		}
	}
}

// Handle procesa un disparo y devuelve el outcome. Un disparo diario que
// corresponde avisar agenda las repeticiones del día; una repetición que ya
// no corresponde cancela las que quedan.
func (d *Dispatcher) Handle(ctx context.Context, e eventbus.Event) string {
	jobID := e.Params[regimens.EventKeyJobID]
	regimenID := e.Params[regimens.EventKeyPillRegimenID]
	dosageID := e.Params[regimens.EventKeyDosageID]
	attempt := attemptOf(e.Params)
	fields := map[string]any{
		"job_id":      jobID,
		"regimen_id":  regimenID,
		"dosage_id":   dosageID,
		"external_id": e.Params[regimens.EventKeyExternalID],
		"attempt":     attempt,
	}

	st, err := d.checker.CheckReminder(ctx, regimenID, dosageID)
	if err != nil {
		fields["err"] = err
		if errors.Is(err, regimens.ErrNotFound) {
			// el regimen se renovó o borró después de agendar el disparo
			d.log.Warn("reminder for unknown regimen or dosage", fields)
			d.cancelRepeats(jobID, attempt, fields)
			return OutcomeSkipped
		}
		d.log.Error("reminder check failed", fields)
		return OutcomeFailed
	}
	if !st.Due {
		fields["reason"] = st.Reason
		d.log.Debug("reminder skipped", fields)
		d.cancelRepeats(jobID, attempt, fields)
		return OutcomeSkipped
	}

	if attempt == 0 {
		d.scheduleRepeats(ctx, e, st, fields)
	}

	err = d.notifier.Notify(ctx, Reminder{
		JobID:      jobID,
		RegimenID:  regimenID,
		DosageID:   dosageID,
		ExternalID: st.ExternalID,
		DosageTime: st.DosageTime,
		Medicines:  st.Medicines,
		Attempt:    attempt,
		FiredAt:    e.Time,
	})
	if err != nil {
		fields["err"] = err
		d.log.Error("reminder delivery failed", fields)
		return OutcomeFailed
	}
	return OutcomeDue
}

// scheduleRepeats agenda hasta RepeatCount repeticiones separadas por
// RepeatWindow a partir del disparo, sin pasar al día siguiente.
func (d *Dispatcher) scheduleRepeats(ctx context.Context, e eventbus.Event, st regimens.ReminderStatus, fields map[string]any) {
	jobID := e.Params[regimens.EventKeyJobID]
	if d.repeater == nil || jobID == "" || st.RepeatCount <= 0 || st.RepeatWindow <= 0 {
		return
	}

	n := 0
	for i := 1; i <= st.RepeatCount; i++ {
		at := e.Time.Add(time.Duration(i) * st.RepeatWindow)
		if !dateutil.SameDay(at, e.Time) {
			break
		}
		params := make(map[string]string, len(e.Params)+1)
		for k, v := range e.Params {
			params[k] = v
		}
		params[regimens.EventKeyAttempt] = strconv.Itoa(i)

		if err := d.repeater.ScheduleOnce(ctx, repeatKey(jobID, i), at, regimens.ReminderSubject, params); err != nil {
			d.log.Warn("reminder repeat not scheduled", map[string]any{
				"job_id":  jobID,
				"attempt": i,
				"err":     err,
			})
			break
		}
		n++
	}
	d.metrics.AddRepeatsScheduled(n)
	if n > 0 {
		fields["repeats"] = n
		d.log.Debug("reminder repeats scheduled", fields)
	}
}

func (d *Dispatcher) cancelRepeats(jobID string, attempt int, fields map[string]any) {
	if d.repeater == nil || attempt == 0 || jobID == "" {
		return
	}
	if n := d.repeater.CancelOnce(repeatPrefix(jobID)); n > 0 {
		fields["cancelled"] = n
		d.log.Debug("remaining reminder repeats cancelled", fields)
	}
}

func repeatPrefix(jobID string) string { return jobID + "/repeat/" }

func repeatKey(jobID string, attempt int) string {
	return repeatPrefix(jobID) + strconv.Itoa(attempt)
}

// attemptOf devuelve 0 si el evento no trae el número de repetición.
func attemptOf(params map[string]string) int {
	n, err := strconv.Atoi(params[regimens.EventKeyAttempt])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

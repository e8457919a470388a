package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los contadores del ciclo de vida de regimens y recordatorios.
// Un *Metrics nil es válido: todos los métodos son no-op.
type Metrics struct {
	RegimensCreated  prometheus.Counter
	RegimensRenewed  prometheus.Counter
	JobsScheduled    prometheus.Counter
	JobsUnscheduled  prometheus.Counter
	RemindersFired   *prometheus.CounterVec
	RepeatsScheduled prometheus.Counter
	LifecycleLatency *prometheus.HistogramVec
}

// New registra las métricas en reg (usar prometheus.NewRegistry() en tests).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegimensCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pillreminder_regimens_created_total",
			Help: "Total number of pill regimens created (including the new side of renewals)",
		}),
		RegimensRenewed: f.NewCounter(prometheus.CounterOpts{
			Name: "pillreminder_regimens_renewed_total",
			Help: "Total number of pill regimens replaced through renew",
		}),
		JobsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "pillreminder_jobs_scheduled_total",
			Help: "Recurring dosage jobs registered with the scheduler",
		}),
		JobsUnscheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "pillreminder_jobs_unscheduled_total",
			Help: "Recurring dosage jobs removed from the scheduler",
		}),
		RemindersFired: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pillreminder_reminders_fired_total",
			Help: "Reminder events handled by the dispatcher, by outcome",
		}, []string{"outcome"}),
		RepeatsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "pillreminder_reminder_repeats_scheduled_total",
			Help: "One-shot follow-up reminders registered after a due reminder",
		}),
		LifecycleLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pillreminder_lifecycle_duration_seconds",
			Help:    "Duration of regimen lifecycle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncRegimenCreated() {
	if m == nil {
		return
	}
	m.RegimensCreated.Inc()
}

func (m *Metrics) IncRegimenRenewed() {
	if m == nil {
		return
	}
	m.RegimensRenewed.Inc()
}

func (m *Metrics) IncJobScheduled() {
	if m == nil {
		return
	}
	m.JobsScheduled.Inc()
}

func (m *Metrics) IncJobUnscheduled() {
	if m == nil {
		return
	}
	m.JobsUnscheduled.Inc()
}

// IncReminder registra un disparo con su resultado (due, skipped, failed).
func (m *Metrics) IncReminder(outcome string) {
	if m == nil {
		return
	}
	m.RemindersFired.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddRepeatsScheduled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RepeatsScheduled.Add(float64(n))
}

// ObserveLifecycle registra la duración de una operación.
// Llamar con time.Now() tomado al inicio.
func (m *Metrics) ObserveLifecycle(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.LifecycleLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

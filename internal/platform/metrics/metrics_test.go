package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRegimenCreated()
	m.IncRegimenCreated()
	m.IncRegimenRenewed()
	m.IncJobScheduled()
	m.IncJobUnscheduled()
	m.IncReminder("due")
	m.IncReminder("skipped")
	m.IncReminder("due")
	m.AddRepeatsScheduled(3)
	m.AddRepeatsScheduled(0)
	m.ObserveLifecycle("create", time.Now())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RegimensCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RegimensRenewed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsScheduled))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsUnscheduled))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RemindersFired.WithLabelValues("due")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RemindersFired.WithLabelValues("skipped")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RepeatsScheduled))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.IncRegimenCreated()
	m.IncRegimenRenewed()
	m.IncJobScheduled()
	m.IncJobUnscheduled()
	m.IncReminder("due")
	m.AddRepeatsScheduled(2)
	m.ObserveLifecycle("create", time.Now())
}

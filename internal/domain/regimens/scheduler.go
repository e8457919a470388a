package regimens

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -source=scheduler.go -destination=mocks/scheduler_mock.go -package=mocks Scheduler

// Subject de los eventos publicados cuando dispara un recordatorio.
const ReminderSubject = "pill-reminder"

// Claves del payload de cada job. Permiten correlacionar un disparo con el agregado.
const (
	EventKeyJobID         = "JobID"
	EventKeyPillRegimenID = "PillRegimenID"
	EventKeyDosageID      = "DosageID"
	EventKeyExternalID    = "ExternalID"

	// EventKeyAttempt numera las repeticiones del día; el disparo diario no lo lleva.
	EventKeyAttempt = "Attempt"
)

// CronJob describe un job recurrente acotado a [StartDate, EndDate].
type CronJob struct {
	Subject        string
	CronExpression string
	StartDate      time.Time
	EndDate        time.Time
	Params         map[string]string
}

func (j CronJob) JobID() string { return j.Params[EventKeyJobID] }

// Scheduler es el gateway hacia el subsistema que persiste y dispara los jobs.
type Scheduler interface {
	ScheduleJob(ctx context.Context, job CronJob) error
	UnscheduleJob(ctx context.Context, jobID string) error
}

// DailyCronExpression arma la expresión cron de 5 campos "min hora * * *".
func DailyCronExpression(t DosageTime) string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// Package cronjobs implementa regimens.Scheduler con robfig/cron: cada job
// dispara a diario y publica un evento en el bus mientras la fecha cae en su
// ventana [StartDate, EndDate]. Los jobs viven en memoria.
package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/eventbus"
	"pill-reminder/internal/platform/dateutil"
	"pill-reminder/internal/platform/logger"
)

var (
	ErrMissingJobID = errors.New("cron job without job id")
	ErrPastFireTime = errors.New("one-shot fire time already passed")
)

var _ regimens.Scheduler = (*Gateway)(nil)

type entry struct {
	job     regimens.CronJob
	sched   cron.Schedule
	entryID cron.EntryID
}

type Gateway struct {
	mu      sync.Mutex
	c       *cron.Cron
	parser  cron.Parser
	loc     *time.Location
	entries map[string]*entry // job id -> entry
	once    map[string]*onceEntry
	running bool

	bus eventbus.Bus
	log logger.Logger
	now func() time.Time
}

type Option func(*Gateway)

func WithLocation(loc *time.Location) Option {
	return func(g *Gateway) {
		if loc != nil {
			g.loc = loc
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// New arma el gateway sin arrancarlo; se pueden registrar jobs antes de Start.
func New(bus eventbus.Bus, opts ...Option) *Gateway {
	g := &Gateway{
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		loc:     time.Local,
		entries: make(map[string]*entry),
		once:    make(map[string]*onceEntry),
		bus:     bus,
		log:     logger.Nop(),
		now:     dateutil.SystemClock,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.c = cron.New(cron.WithParser(g.parser), cron.WithLocation(g.loc))
	return g
}

// ScheduleJob registra el job; si ya había uno con el mismo id lo reemplaza.
func (g *Gateway) ScheduleJob(ctx context.Context, job regimens.CronJob) error {
	jobID := strings.TrimSpace(job.JobID())
	if jobID == "" {
		return ErrMissingJobID
	}
	sched, err := g.parser.Parse(job.CronExpression)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", job.CronExpression, err)
	}

	job.Params = copyParams(job.Params)

	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.entries[jobID]; ok {
		g.c.Remove(old.entryID)
	}
	id := g.c.Schedule(sched, cron.FuncJob(func() { g.fire(jobID) }))
	g.entries[jobID] = &entry{job: job, sched: sched, entryID: id}

	g.log.Debug("cron job registered", map[string]any{
		"job_id": jobID,
		"cron":   job.CronExpression,
		"start":  job.StartDate.Format(dateutil.Layout),
		"end":    job.EndDate.Format(dateutil.Layout),
	})
	return nil
}

// UnscheduleJob es idempotente: un id desconocido no es error (los jobs no
// sobreviven a un reinicio del proceso).
func (g *Gateway) UnscheduleJob(ctx context.Context, jobID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeLocked(jobID)
	return nil
}

// JobInfo es la vista de un job registrado.
type JobInfo struct {
	JobID          string
	Subject        string
	CronExpression string
	StartDate      time.Time
	EndDate        time.Time
	Params         map[string]string
	Next           time.Time
}

// Jobs lista los jobs registrados ordenados por id.
func (g *Gateway) Jobs() []JobInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]JobInfo, 0, len(g.entries))
	for id, e := range g.entries {
		info := JobInfo{
			JobID:          id,
			Subject:        e.job.Subject,
			CronExpression: e.job.CronExpression,
			StartDate:      e.job.StartDate,
			EndDate:        e.job.EndDate,
			Params:         copyParams(e.job.Params),
		}
		if ce := g.c.Entry(e.entryID); ce.Valid() {
			info.Next = ce.Next
		}
		if info.Next.IsZero() {
			// sin arrancar cron no calcula Next
			info.Next = e.sched.Next(g.now().In(g.loc))
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

func (g *Gateway) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.c.Start()
	g.running = true
	g.log.Info("scheduler started", map[string]any{"tz": g.loc.String(), "jobs": len(g.entries)})
}

// Stop espera a que terminen los disparos en curso o a que venza ctx.
func (g *Gateway) Stop(ctx context.Context) {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	done := g.c.Stop().Done()
	g.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	g.log.Info("scheduler stopped", nil)
}

// fire corre en la goroutine de cron.
func (g *Gateway) fire(jobID string) {
	now := g.now().In(g.loc)

	g.mu.Lock()
	e, ok := g.entries[jobID]
	if !ok {
		g.mu.Unlock()
		return
	}
	job := e.job
	today := dateutil.CivilDate(now)
	if today.After(dateutil.CivilDate(job.EndDate)) {
		g.removeLocked(jobID)
		g.mu.Unlock()
		g.log.Info("cron job expired", map[string]any{
			"job_id": jobID,
			"end":    job.EndDate.Format(dateutil.Layout),
		})
		return
	}
	g.mu.Unlock()

	if today.Before(dateutil.CivilDate(job.StartDate)) {
		return
	}

	g.bus.Publish(eventbus.Event{
		Subject: job.Subject,
		Time:    now,
		Params:  copyParams(job.Params),
	})
}

type onceEntry struct {
	at      time.Time
	subject string
	params  map[string]string
	entryID cron.EntryID
}

// onceSchedule dispara una sola vez en at; después cron no lo vuelve a correr.
type onceSchedule struct{ at time.Time }

func (s onceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// ScheduleOnce publica un evento con subject y params una sola vez en at.
// Una key repetida reemplaza el disparo pendiente.
func (g *Gateway) ScheduleOnce(ctx context.Context, key string, at time.Time, subject string, params map[string]string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingJobID
	}
	if !at.After(g.now()) {
		return fmt.Errorf("%w: %s at %s", ErrPastFireTime, key, at.Format(time.RFC3339))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelOnceLocked(key)
	id := g.c.Schedule(onceSchedule{at: at.In(g.loc)}, cron.FuncJob(func() { g.fireOnce(key) }))
	g.once[key] = &onceEntry{at: at, subject: subject, params: copyParams(params), entryID: id}
	return nil
}

// CancelOnce descarta los disparos únicos pendientes cuya key empieza con
// prefix y devuelve cuántos eran.
func (g *Gateway) CancelOnce(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for key := range g.once {
		if strings.HasPrefix(key, prefix) {
			g.cancelOnceLocked(key)
			n++
		}
	}
	return n
}

// OnceInfo es la vista de un disparo único pendiente.
type OnceInfo struct {
	Key string
	At  time.Time
}

// PendingOnce lista los disparos únicos pendientes ordenados por hora.
func (g *Gateway) PendingOnce() []OnceInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]OnceInfo, 0, len(g.once))
	for key, e := range g.once {
		out = append(out, OnceInfo{Key: key, At: e.at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Key < out[j].Key
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

func (g *Gateway) fireOnce(key string) {
	g.mu.Lock()
	e, ok := g.once[key]
	if ok {
		g.cancelOnceLocked(key)
	}
	g.mu.Unlock()
	if !ok {
		return
	}

	g.bus.Publish(eventbus.Event{
		Subject: e.subject,
		Time:    g.now().In(g.loc),
		Params:  copyParams(e.params),
	})
}

func (g *Gateway) cancelOnceLocked(key string) {
	e, ok := g.once[key]
	if !ok {
		return
	}
	g.c.Remove(e.entryID)
	delete(g.once, key)
}

func (g *Gateway) removeLocked(jobID string) {
	e, ok := g.entries[jobID]
	if !ok {
		return
	}
	g.c.Remove(e.entryID)
	delete(g.entries, jobID)
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

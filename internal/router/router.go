package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pill-reminder/docs"
	"pill-reminder/internal/adapters/scheduler/cronjobs"
	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/middleware"
	"pill-reminder/internal/platform/dateutil"
	"pill-reminder/internal/platform/logger"
)

// JobLister lo implementa *cronjobs.Gateway.
type JobLister interface {
	Jobs() []cronjobs.JobInfo
}

type Options struct {
	Regimens *regimens.Service

	// Opcional: expone GET /scheduler/jobs.
	Jobs JobLister

	Logger logger.Logger

	// Opcional: default prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if opts.Jobs != nil {
		r.Get("/scheduler/jobs", jobsHandler(opts.Jobs))
	}

	if opts.Regimens != nil {
		regimens.RegisterRoutes(r, opts.Regimens)
	}

	return r
}

type jobResponse struct {
	JobID          string            `json:"job_id"`
	Subject        string            `json:"subject"`
	CronExpression string            `json:"cron_expression"`
	StartDate      string            `json:"start_date"`
	EndDate        string            `json:"end_date"`
	Next           time.Time         `json:"next"`
	Params         map[string]string `json:"params"`
}

func jobsHandler(jobs JobLister) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := jobs.Jobs()
		out := make([]jobResponse, 0, len(items))
		for _, j := range items {
			out = append(out, jobResponse{
				JobID:          j.JobID,
				Subject:        j.Subject,
				CronExpression: j.CronExpression,
				StartDate:      j.StartDate.Format(dateutil.Layout),
				EndDate:        j.EndDate.Format(dateutil.Layout),
				Next:           j.Next,
				Params:         j.Params,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

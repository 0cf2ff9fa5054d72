// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budget/internal/cache"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/report"
	"budget/internal/services"
	"budget/internal/storage"
)

// Archive stores backups beyond the process lifetime.
// *storage.SQLiteRepository satisfies it.
type Archive interface {
	SaveBackup(ctx context.Context, b report.Backup, label string) (storage.BackupInfo, error)
	ListBackups(ctx context.Context, limit int) ([]storage.BackupInfo, error)
	LoadBackup(ctx context.Context, id string) (report.Backup, error)
	DeleteBackup(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ReportSyncer pushes the current report to an external sink.
type ReportSyncer interface {
	Sync(ctx context.Context) (string, error)
}

// Deps are the collaborators of a Server. Ledger is required; nil optional
// fields disable the routes that need them.
type Deps struct {
	Ledger    *services.LedgerService
	Processor *services.RecurringProcessor
	Archive   Archive
	Sheets    ReportSyncer
	Cache     *cache.LRUCache[[]byte]
	Limiter   *ratelimit.Limiter
	Logger    *applog.Logger
	Now       func() time.Time
}

type Server struct {
	http.Server
	deps         Deps
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer builds the router and returns a server ready to ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Processor == nil {
		deps.Processor = services.NewRecurringProcessor(deps.Ledger)
	}

	s := &Server{deps: deps, now: deps.Now}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	ips, _ := security.NewClientIPResolver()
	r.Use(middleware.RequestID)
	r.Use(applog.RequestLogger(s.deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	if s.deps.Limiter != nil {
		r.Use(s.deps.Limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Get("/{id}", s.handleGetGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})
		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Post("/process", s.handleProcessRecurring)
			r.Get("/{id}", s.handleGetRecurring)
			r.Put("/{id}", s.handleUpdateRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
			r.Post("/{id}/toggle", s.handleToggleRecurring)
			r.Post("/{id}/advance", s.handleAdvanceRecurring)
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/groups", s.handleGroups)
		r.Get("/top-categories", s.handleTopCategories)
		r.Get("/monthly", s.handleMonthly)
		r.Get("/recent", s.handleRecent)

		r.Get("/export/json", s.handleExportJSON)
		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/report.csv", s.handleExportReportCSV)
		r.Get("/export/recurring.csv", s.handleExportRecurringCSV)
		r.Post("/export/sheets", s.handleExportSheets)
		r.Post("/import", s.handleImport)
		r.Delete("/ledger", s.handleReset)

		r.Get("/backups", s.handleListBackups)
		r.Post("/backups", s.handleSaveBackup)
		r.Delete("/backups/{id}", s.handleDeleteBackup)
		r.Post("/backups/{id}/restore", s.handleRestoreBackup)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.deps.Limiter != nil {
			s.deps.Limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Archive.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

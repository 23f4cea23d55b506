package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/bulk"
	"ordermonitor/src/controller"
	"ordermonitor/src/handler"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/metrics"
	"ordermonitor/src/monitor"
	"ordermonitor/src/repository"
)

// Deps are the components behind the routes. Exceptions may be nil when the
// journal is disabled.
type Deps struct {
	Monitor     *monitor.Monitor
	Actions     *controller.OrderActions
	Bulk        *bulk.Coordinator
	Maintenance *maintenance.Controller
	Exceptions  *repository.ExceptionRepository
	Metrics     *metrics.Metrics
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", handler.ListOrdersHandler(d.Monitor))
			r.Post("/sort/{column}", handler.ToggleSortHandler(d.Monitor))
			r.Post("/{id}/pause", handler.PauseOrderHandler(d.Actions))
			r.Post("/{id}/resume", handler.ResumeOrderHandler(d.Actions))
			r.Delete("/{id}", handler.CancelOrderHandler(d.Monitor, d.Actions))
		})

		r.Route("/watched", func(r chi.Router) {
			r.Get("/", handler.ListWatchedHandler(d.Monitor))
			r.Put("/scope", handler.SetScopeHandler(d.Monitor))
			r.Post("/selection/all", handler.SelectAllHandler(d.Monitor))
			r.Post("/selection/{watchID}/toggle", handler.ToggleSelectionHandler(d.Monitor))
			r.Post("/resolve-selected", handler.ResolveSelectedHandler(d.Bulk))
			r.Post("/resume-selected", handler.ResumeSelectedHandler(d.Bulk))
			r.Post("/{watchID}/resolve", handler.ResolveWatchedHandler(d.Actions))
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", handler.GetMaintenanceHandler(d.Monitor))
			r.Put("/exchanges", handler.SetExchangesHandler(d.Maintenance))
			r.Post("/toggle", handler.ToggleMaintenanceHandler(d.Maintenance))
		})

		r.Get("/notices", handler.ListNoticesHandler(d.Monitor.Notifier()))
		r.Get("/exceptions", handler.ListExceptionsHandler(d.Exceptions))
		r.Get("/stream", handler.StreamHandler(d.Monitor))
	})

	return r
}

// Run serves h on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, port string, h http.Handler) error {
	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
		return err
	}
	return nil
}

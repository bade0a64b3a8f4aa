// Package gateway composes the local JSON API and runs it.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/farmgate/pkg/httpjson"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/dwikikusuma/farmgate/pkg/notify"
	"golang.org/x/sync/errgroup"
)

const ShutdownTimeout = 10 * time.Second

// Routes is implemented by every transport handler.
type Routes interface {
	Register(mux *http.ServeMux)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Routes  []Routes
	Notices *notify.Feed
	Metrics *metrics.Metrics
	Ready   []ReadinessCheck
	Log     *slog.Logger
}

type noticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

// NewHandler mounts the transport routes next to health, readiness, metrics
// and the notice feed.
func NewHandler(opts Options) http.Handler {
	log := logger.OrDefault(opts.Log)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range opts.Ready {
			if err := check(ctx); err != nil {
				log.Warn("readiness check failed", slog.Any("err", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	if opts.Notices != nil {
		mux.HandleFunc("GET /api/notices", func(w http.ResponseWriter, r *http.Request) {
			httpjson.WriteJSON(w, http.StatusOK, noticesResponse{Notices: opts.Notices.Drain()})
		})
	}

	for _, routes := range opts.Routes {
		routes.Register(mux)
	}
	return logRequests(mux, log)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// Serve runs srv until ctx is cancelled, then shuts it down within
// ShutdownTimeout. A listener failure cancels the group and is returned.
func Serve(ctx context.Context, srv *http.Server, log *slog.Logger) error {
	log = logger.OrDefault(log)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
			return err
		}
		return nil
	})

	return g.Wait()
}

// NewServer applies the timeouts every binary uses. WriteTimeout is left at
// zero because payment confirmation holds a request open for up to a minute.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

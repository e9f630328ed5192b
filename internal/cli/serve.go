package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/auth"
	"github.com/jonwraymond/ecaspace/config"
	"github.com/jonwraymond/ecaspace/health"
	"github.com/jonwraymond/ecaspace/observe"
	"github.com/jonwraymond/ecaspace/resilience"
	"github.com/jonwraymond/ecaspace/session"
	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries, health checks and metrics over HTTP",
		Long: `Serve the configured automaton over HTTP.

Endpoints:
  GET /v1/cell?x=&t=          one cell
  GET /v1/row?x=&t=&width=    a run of cells
  (both require credentials when serve.auth is configured and are
  bounded by serve.limits)
  GET /healthz, /readyz       liveness and readiness
  GET /health, /health/{name} detailed checks
  GET /metrics                Prometheus exposition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if cmd.Flags().Changed("addr") {
					a.cfg.Serve.Addr = addr
				}
				ln, err := net.Listen("tcp", a.cfg.Serve.Addr)
				if err != nil {
					return WrapExitError(ExitCommandError, "listen", err)
				}
				return serve(ctx, a, ln)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.Default().Serve.Addr, "listen address")
	return cmd
}

// serve runs the HTTP server on ln until ctx is done.
func serve(ctx context.Context, a *app, ln net.Listener) error {
	h, err := newHandler(a)
	if err != nil {
		_ = ln.Close()
		return WrapExitError(ExitCommandError, "configure server", err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger := a.obs.Logger()
	logger.Info(ctx, "serving", observe.Field{Key: "addr", Value: ln.Addr().String()})

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return WrapExitError(ExitFailure, "serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "serve", err)
	}
	logger.Info(context.Background(), "server stopped")
	return nil
}

func newHandler(a *app) (http.Handler, error) {
	authn, err := a.cfg.Authenticator()
	if err != nil {
		return nil, err
	}

	agg := health.NewAggregator()
	agg.Register("capacity", health.NewCapacityChecker(a.session, health.CapacityCheckerConfig{}))
	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/cell", cellHandler(a))
	api.HandleFunc("GET /v1/row", rowHandler(a))
	limited := limitQueries(a.cfg.Bulkhead(), a.cfg.RateLimiter(), api)
	if authn != nil {
		mux.Handle("/v1/", auth.Middleware(authn, limited))
	} else {
		mux.Handle("/v1/", limited)
	}
	return mux, nil
}

// limitQueries admits requests through rl, when set, and then holds a
// bulkhead slot while next runs.
func limitQueries(bh *resilience.Bulkhead, rl *resilience.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl != nil {
			if err := rl.Wait(r.Context()); err != nil {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, err)
				return
			}
		}
		if err := bh.Acquire(r.Context()); err != nil {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		defer bh.Release()
		next.ServeHTTP(w, r)
	})
}

func cellHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, err := intParam(r, "x", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := intParam(r, "t", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		state, err := query(r.Context(), a, func(ctx context.Context, s *session.Session) (bool, error) {
			return s.Cell(ctx, x, t)
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, CellResult{X: x, T: t, State: state})
	}
}

func rowHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, err := intParam(r, "x", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := intParam(r, "t", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		width, err := intParam(r, "width", 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if limit := int64(a.cfg.Serve.MaxWidth); width <= 0 || (limit > 0 && width > limit) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("width must be in [1, %d], got %d", limit, width))
			return
		}

		row, err := query(r.Context(), a, func(ctx context.Context, s *session.Session) ([]bool, error) {
			return s.Row(ctx, x, t, int(width))
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, RowResult{X: x, T: t, Width: int(width), Cells: config.FormatPattern(row)})
	}
}

func intParam(r *http.Request, name string, def int64) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, spacetime.ErrInvalidTime), errors.Is(err, spacetime.ErrInvalidWidth),
		errors.Is(err, spacetime.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrPollExhausted), errors.Is(err, slice.ErrCancelled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

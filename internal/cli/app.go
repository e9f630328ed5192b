package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/config"
	"github.com/jonwraymond/ecaspace/observe"
	"github.com/jonwraymond/ecaspace/resilience"
	"github.com/jonwraymond/ecaspace/session"
)

// app bundles what a command needs to answer queries.
type app struct {
	cfg      config.Config
	out      *OutputFormatter
	obs      observe.Observer
	registry *prometheus.Registry
	session  *session.Session
	poller   *resilience.Poller
}

func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	out := opts.formatter(cmd)

	registry := prometheus.NewRegistry()
	oc := cfg.ObserveConfig()
	oc.Version = Version
	oc.Metrics.Registerer = registry
	oc.Logging.Output = cmd.ErrOrStderr()

	obs, err := observe.NewObserver(cmd.Context(), oc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "create observer", err)
	}

	sc, err := cfg.SessionConfig()
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	s, err := session.New(sc, session.WithObserver(obs))
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return nil, WrapExitError(ExitCommandError, "create session", err)
	}

	pc := cfg.PollerConfig()
	pc.OnAttempt = func(attempt int, err error) {
		out.VerboseLog("attempt %d out of budget, retrying", attempt)
	}

	out.VerboseLog("rule %d, center %q, left %q, right %q",
		cfg.Rule, cfg.Initial.Center, cfg.Initial.Left, cfg.Initial.Right)

	return &app{
		cfg:      cfg,
		out:      out,
		obs:      obs,
		registry: registry,
		session:  s,
		poller:   resilience.NewPoller(pc),
	}, nil
}

func (r *app) Close(ctx context.Context) error {
	return errors.Join(r.session.Close(), r.obs.Shutdown(ctx))
}

// query re-issues op under the poller until it completes.
func query[T any](ctx context.Context, r *app, op func(context.Context, *session.Session) (T, error)) (T, error) {
	v, err := resilience.Poll(ctx, r.poller, func(ctx context.Context) (T, error) {
		return op(ctx, r.session)
	})
	if err != nil {
		return v, WrapExitError(ExitFailure, "query failed", err)
	}
	return v, nil
}

// run opens an app for the duration of fn.
func run(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *app) error) (err error) {
	rt, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.Background()); cerr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", cerr)
		}
	}()

	return fn(cmd.Context(), rt)
}

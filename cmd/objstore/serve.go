/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"

	"github.com/suparena/objectstore"
	"github.com/suparena/objectstore/logging"
	"github.com/suparena/objectstore/supervisor"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the backend connection healthy and expose metrics",
		Long: `Connects to the configured backend and runs the connection supervisor
until interrupted. When metrics.listen is set (or --listen is given), the
Prometheus metrics are served on /metrics and the connection state on /healthz.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	cmd.Flags().String("listen", "", "metrics listen address, overrides metrics.listen")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	log := a.logger()
	sup := supervisor.New(store.Backend(),
		supervisor.WithInterval(a.settings.Supervisor.Interval),
		supervisor.WithReconnectDelay(a.settings.Supervisor.ReconnectDelay),
		supervisor.WithLogger(log),
		supervisor.WithMetricsSet(store.Metrics()),
	)
	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer sup.Shutdown()

	listen := a.settings.Metrics.Listen
	if flag, _ := cmd.Flags().GetString("listen"); flag != "" {
		listen = flag
	}

	var srv *http.Server
	errCh := make(chan error, 1)
	if listen != "" {
		srv = &http.Server{
			Addr:              listen,
			Handler:           newMux(store),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		httpLog := logging.Component(log, "http")
		httpLog.Info().Str("listen", listen).Msg("serving metrics")
	}

	log.Info().
		Str("backend", store.Backend().Name()).
		Dur("interval", a.settings.Supervisor.Interval).
		Msg("objstore serving")

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn().Err(serr).Msg("stopping metrics server")
		}
	}
	log.Info().Msg("objstore stopped")
	return err
}

func newMux(store *objectstore.ObjectStore) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		store.Metrics().WritePrometheus(w)
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !store.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "disconnected")
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}

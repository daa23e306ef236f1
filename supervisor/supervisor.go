/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package supervisor

import (
	"context"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/periodic"
)

const (
	DefaultInterval       = 10 * time.Second
	DefaultReconnectDelay = 1 * time.Second

	metricAttempts   = "objectstore_reconnect_attempts_total"
	metricRecoveries = "objectstore_reconnect_success_total"
)

type config struct {
	interval time.Duration
	delay    time.Duration
	log      zerolog.Logger
	set      *metrics.Set
}

// Option configures a Supervisor.
type Option func(*config)

// WithInterval sets the health check interval.
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

// WithReconnectDelay sets the pause between closing and reopening the connection.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithMetricsSet registers the reconnect counters on set.
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *config) { c.set = set }
}

// Supervisor watches the connection state of a backend and reconnects it.
type Supervisor struct {
	conn  datastore.Connector
	task  *periodic.Task
	delay time.Duration
	log   zerolog.Logger

	attempts   *metrics.Counter
	recoveries *metrics.Counter
}

// New creates a stopped Supervisor for conn.
func New(conn datastore.Connector, opts ...Option) *Supervisor {
	cfg := config{
		interval: DefaultInterval,
		delay:    DefaultReconnectDelay,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.set == nil {
		cfg.set = metrics.NewSet()
	}

	s := &Supervisor{
		conn:       conn,
		delay:      cfg.delay,
		log:        cfg.log.With().Str("component", "supervisor").Logger(),
		attempts:   cfg.set.GetOrCreateCounter(metricAttempts),
		recoveries: cfg.set.GetOrCreateCounter(metricRecoveries),
	}
	s.task = periodic.New(s.Check,
		periodic.WithInterval(cfg.interval),
		periodic.WithName("supervisor"),
		periodic.WithLogger(s.log),
	)
	return s
}

// Start begins the periodic health check.
func (s *Supervisor) Start(ctx context.Context) error {
	s.log.Debug().Dur("interval", s.task.Interval()).Msg("starting connection supervisor")
	return s.task.Start(ctx)
}

// SetInterval changes the health check interval.
func (s *Supervisor) SetInterval(d time.Duration) {
	s.task.SetInterval(d)
}

// Shutdown stops the supervisor and waits for a running check to return.
func (s *Supervisor) Shutdown() {
	s.task.Shutdown()
	s.log.Debug().Msg("connection supervisor stopped")
}

// Attempts returns the number of reconnect attempts made.
func (s *Supervisor) Attempts() uint64 { return s.attempts.Get() }

// Check runs one health check. It never panics.
func (s *Supervisor) Check(ctx context.Context) {
	if s.conn.IsConnected() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("reconnect attempt panicked")
		}
	}()

	s.attempts.Inc()
	s.log.Info().Msg("attempting to reconnect")

	if err := s.conn.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("closing stale connection")
	}

	timer := time.NewTimer(s.delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}

	if err := s.conn.Connect(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to reconnect")
		return
	}

	ok := s.conn.Ping(ctx)
	s.conn.SetConnected(ok)
	if !ok {
		s.log.Warn().Msg("reconnected but health probe failed")
		return
	}

	s.recoveries.Inc()
	s.log.Info().
		Str("transition", "disconnected->connected").
		Msg("reconnected to database")
}

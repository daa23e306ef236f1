/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"time"

	"github.com/rs/zerolog"
)

// Options holds the tuning shared by backend adapters.
type Options struct {
	// MaxRetries is the number of connection attempts when opening a backend.
	MaxRetries int
	// RetryBackoff is the wait between connection attempts.
	RetryBackoff time.Duration
	// PageSize bounds the items read per backend round trip.
	PageSize int32
	// Clock stamps _timestamp on put.
	Clock *Clock
	// Logger receives adapter diagnostics.
	Logger zerolog.Logger
}

// Option configures an adapter.
type Option func(*Options)

// WithMaxRetries sets the number of connection attempts.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRetries = n
		}
	}
}

// WithRetryBackoff sets the wait between connection attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.RetryBackoff = d
		}
	}
}

// WithPageSize sets the items read per round trip.
func WithPageSize(n int32) Option {
	return func(o *Options) {
		if n > 0 {
			o.PageSize = n
		}
	}
}

// WithClock sets the timestamp clock.
func WithClock(c *Clock) Option {
	return func(o *Options) {
		if c != nil {
			o.Clock = c
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// DefaultOptions returns the adapter defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		PageSize:     100,
		Clock:        NewClock(),
		Logger:       zerolog.Nop(),
	}
}

// ApplyOptions returns the defaults with opts applied.
func ApplyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

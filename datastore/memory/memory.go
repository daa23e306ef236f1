/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory backend for testing and local runs
package memory

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// BackendName is the factory name of the memory backend.
const BackendName = "memory"

// Store is an in-memory implementation of datastore.Backend.
// Documents are kept per partition in insertion order.
type Store struct {
	datastore.ConnState

	opts       datastore.Options
	endpoint   string
	partitions *xsync.MapOf[string, *partition]
	calls      *xsync.MapOf[errors.Operation, int64]

	reachable atomic.Bool
	opened    atomic.Bool

	mu         sync.RWMutex
	failures   map[errors.Operation]error
	connectErr error
}

type partition struct {
	mu   sync.RWMutex
	docs []storagemodels.Document
}

// New creates a connected memory store
func New(opts ...datastore.Option) *Store {
	s := &Store{
		opts:       datastore.ApplyOptions(opts...),
		endpoint:   "memory://",
		partitions: xsync.NewMapOf[string, *partition](),
		calls:      xsync.NewMapOf[errors.Operation, int64](),
		failures:   make(map[errors.Operation]error),
	}
	s.reachable.Store(true)
	s.opened.Store(true)
	s.SetConnected(true)
	return s
}

// Open is the factory entry point. The endpoint is only used in error messages.
func Open(_ context.Context, endpoint string, opts ...datastore.Option) (datastore.Backend, error) {
	s := New(opts...)
	if endpoint != "" {
		s.endpoint = endpoint
	}
	return s, nil
}

// Name returns the factory name.
func (s *Store) Name() string { return BackendName }

// WithGetError makes Get operations return an error
func (s *Store) WithGetError(err error) *Store { return s.failOn(errors.OpGet, err) }

// WithPutError makes Put operations return an error
func (s *Store) WithPutError(err error) *Store { return s.failOn(errors.OpPut, err) }

// WithUpdateError makes Update operations return an error
func (s *Store) WithUpdateError(err error) *Store { return s.failOn(errors.OpUpdate, err) }

// WithRemoveError makes Remove operations return an error
func (s *Store) WithRemoveError(err error) *Store { return s.failOn(errors.OpRemove, err) }

// WithConnectError makes Connect fail with err
func (s *Store) WithConnectError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErr = err
	return s
}

// FailWith makes every operation return err; nil clears all injected failures.
func (s *Store) FailWith(err error) *Store {
	for _, op := range []errors.Operation{errors.OpGet, errors.OpPut, errors.OpUpdate, errors.OpRemove} {
		s.failOn(op, err)
	}
	return s
}

func (s *Store) failOn(op errors.Operation, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
	} else {
		s.failures[op] = err
	}
	return s
}

// SetReachable simulates the backend going away or coming back. While
// unreachable, operations fail with a ConnectionError and Connect fails.
func (s *Store) SetReachable(reachable bool) {
	s.reachable.Store(reachable)
}

// Calls returns how many times op reached the store.
func (s *Store) Calls(op errors.Operation) int64 {
	n, _ := s.calls.Load(op)
	return n
}

// Count returns the number of documents in a partition.
func (s *Store) Count(name string) int {
	p, ok := s.partitions.Load(name)
	if !ok {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.docs)
}

// Partitions returns the names of existing partitions.
func (s *Store) Partitions() []string {
	names := make([]string, 0, s.partitions.Size())
	s.partitions.Range(func(name string, _ *partition) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Clear removes all partitions.
func (s *Store) Clear() {
	s.partitions.Clear()
}

// Connect opens the store again after Close.
func (s *Store) Connect(_ context.Context) error {
	s.mu.RLock()
	connectErr := s.connectErr
	s.mu.RUnlock()

	if connectErr != nil {
		return errors.NewConnectionError(s.endpoint, connectErr)
	}
	if !s.reachable.Load() {
		return errors.NewConnectionError(s.endpoint, nil)
	}
	s.opened.Store(true)
	return nil
}

// Close releases the store. Stored documents are kept.
func (s *Store) Close(_ context.Context) error {
	s.opened.Store(false)
	return nil
}

// Ping reports whether the store is open and reachable.
func (s *Store) Ping(_ context.Context) bool {
	return s.opened.Load() && s.reachable.Load()
}

// Get returns the matching documents of a partition in insertion order.
func (s *Store) Get(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	if err := s.begin(ctx, errors.OpGet, name); err != nil {
		return nil, err
	}

	p, ok := s.partitions.Load(name)
	if !ok {
		return nil, s.fail(errors.OpGet, name, errors.NewSchemaError(name))
	}
	m, err := compile(q)
	if err != nil {
		return nil, s.fail(errors.OpGet, name, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]storagemodels.Document, 0, len(p.docs))
	for _, doc := range p.docs {
		if m.match(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// Put stores a document, creating the partition on first use.
func (s *Store) Put(ctx context.Context, name string, doc storagemodels.Document) ([]storagemodels.Document, error) {
	if err := s.begin(ctx, errors.OpPut, name); err != nil {
		return nil, err
	}

	stored, err := datastore.PrepareInsert(doc, s.opts.Clock)
	if err != nil {
		return nil, s.fail(errors.OpPut, name, err)
	}
	if stored.ID() == "" {
		stored[storagemodels.IDField] = uuid.NewString()
	}

	p, _ := s.partitions.LoadOrCompute(name, func() *partition { return &partition{} })
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.docs {
		if existing.ID() == stored.ID() {
			return nil, s.fail(errors.OpPut, name, errors.NewDataError(storagemodels.IDField, "duplicate id "+stored.ID()))
		}
	}
	p.docs = append(p.docs, stored)

	s.opts.Logger.Debug().Str("partition", name).Str("id", stored.ID()).Msg("stored document")
	return []storagemodels.Document{stored.Clone()}, nil
}

// Update sets the fields of doc on every matching document.
func (s *Store) Update(ctx context.Context, name string, doc storagemodels.Document, q storagemodels.Query) ([]storagemodels.Document, error) {
	if err := s.begin(ctx, errors.OpUpdate, name); err != nil {
		return nil, err
	}

	fields, err := datastore.PrepareUpdate(doc)
	if err != nil {
		return nil, s.fail(errors.OpUpdate, name, err)
	}
	p, ok := s.partitions.Load(name)
	if !ok {
		return nil, s.fail(errors.OpUpdate, name, errors.NewSchemaError(name))
	}
	m, err := compile(q)
	if err != nil {
		return nil, s.fail(errors.OpUpdate, name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var matched, modified int64
	for i, existing := range p.docs {
		if !m.match(existing) {
			continue
		}
		matched++
		changed := false
		next := existing.Clone()
		for k, v := range fields {
			if old, ok := next[k]; !ok || !reflect.DeepEqual(old, v) {
				changed = true
			}
			next[k] = v
		}
		if changed {
			modified++
			p.docs[i] = next
		}
	}
	return datastore.UpdateCounts(matched, modified), nil
}

// Remove deletes every matching document.
func (s *Store) Remove(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	if err := s.begin(ctx, errors.OpRemove, name); err != nil {
		return nil, err
	}

	p, ok := s.partitions.Load(name)
	if !ok {
		return nil, s.fail(errors.OpRemove, name, errors.NewSchemaError(name))
	}
	m, err := compile(q)
	if err != nil {
		return nil, s.fail(errors.OpRemove, name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.docs[:0]
	var deleted int64
	for _, existing := range p.docs {
		if m.match(existing) {
			deleted++
			continue
		}
		kept = append(kept, existing)
	}
	for i := len(kept); i < len(p.docs); i++ {
		p.docs[i] = nil
	}
	p.docs = kept
	return datastore.RemoveCounts(deleted), nil
}

// begin counts the call and applies injected failures and reachability.
func (s *Store) begin(ctx context.Context, op errors.Operation, name string) error {
	s.calls.Compute(op, func(n int64, _ bool) (int64, bool) { return n + 1, false })

	if err := ctx.Err(); err != nil {
		return s.fail(op, name, err)
	}

	s.mu.RLock()
	injected := s.failures[op]
	s.mu.RUnlock()
	if injected != nil {
		return s.fail(op, name, injected)
	}

	if !s.reachable.Load() || !s.opened.Load() {
		return s.fail(op, name, errors.NewConnectionError(s.endpoint, nil))
	}
	return nil
}

func (s *Store) fail(op errors.Operation, name string, err error) error {
	return datastore.OpError(op, name, s.endpoint, err, nil)
}

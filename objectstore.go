/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/registry"
	"github.com/suparena/objectstore/storagemodels"
)

// ObjectStore persists records through a backend. Every operation returns a
// *record.Result and never panics to the caller. It is safe for concurrent use.
type ObjectStore struct {
	backend datastore.Backend
	log     zerolog.Logger
	union   bool
	metrics *storeMetrics
}

// Option configures an ObjectStore.
type Option func(*ObjectStore)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *ObjectStore) {
		s.log = l
	}
}

// WithUnionSchema stores every record type of a schema in one partition named
// after the schema, told apart by the _obj_name field.
func WithUnionSchema() Option {
	return func(s *ObjectStore) {
		s.union = true
	}
}

// WithMetricsSet registers the operation metrics in set.
func WithMetricsSet(set *metrics.Set) Option {
	return func(s *ObjectStore) {
		if set != nil {
			s.metrics = newStoreMetrics(set)
		}
	}
}

// New creates an ObjectStore on a connected backend.
func New(backend datastore.Backend, opts ...Option) *ObjectStore {
	s := &ObjectStore{
		backend: backend,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newStoreMetrics(metrics.NewSet())
	}
	s.metrics.trackConnection(backend)
	return s
}

// Backend returns the backend the store delegates to.
func (s *ObjectStore) Backend() datastore.Backend { return s.backend }

// IsConnected reports the last known connection state of the backend.
func (s *ObjectStore) IsConnected() bool { return s.backend.IsConnected() }

// Metrics returns the metrics set of the store.
func (s *ObjectStore) Metrics() *metrics.Set { return s.metrics.set }

// Partition returns the partition holding records of typeName in schema.
func (s *ObjectStore) Partition(schema, typeName string) string {
	if s.union {
		return schema
	}
	return datastore.Partition(schema, typeName)
}

// Get returns the records of typeName matching the query.
func (s *ObjectStore) Get(ctx context.Context, schema, typeName string, q storagemodels.Query) *record.Result {
	return s.run(ctx, errors.OpGet, typeName, func() ([]storagemodels.Document, error) {
		partition := s.Partition(schema, typeName)
		docs, err := s.backend.Get(ctx, partition, s.scope(q, typeName))
		if err != nil {
			return nil, err
		}
		return s.unscope(docs), nil
	})
}

// PutObject stores a record under its registered type name.
func (s *ObjectStore) PutObject(ctx context.Context, schema string, r record.Record) *record.Result {
	typeName := registry.NameOf(r)
	if !s.backend.IsConnected() {
		return s.disconnected(errors.OpPut, typeName)
	}

	doc, err := record.Fields(r)
	if err != nil {
		return s.reject(errors.OpPut, typeName, err)
	}
	return s.Put(ctx, schema, typeName, doc)
}

// Put stores a field-map as a record of typeName. The field-map must carry
// the base record fields; an empty _id asks the backend to assign one.
func (s *ObjectStore) Put(ctx context.Context, schema, typeName string, doc storagemodels.Document) *record.Result {
	return s.run(ctx, errors.OpPut, typeName, func() ([]storagemodels.Document, error) {
		if err := checkBase(typeName, doc); err != nil {
			return nil, err
		}
		if s.union {
			doc = doc.Clone()
			doc[storagemodels.TypeField] = typeName
		}
		docs, err := s.backend.Put(ctx, s.Partition(schema, typeName), doc)
		if err != nil {
			return nil, err
		}
		return s.unscope(docs), nil
	})
}

// UpdateObject sets the fields of a record on every matching record of its type.
func (s *ObjectStore) UpdateObject(ctx context.Context, schema string, r record.Record, q storagemodels.Query) *record.Result {
	typeName := registry.NameOf(r)
	if !s.backend.IsConnected() {
		return s.disconnected(errors.OpUpdate, typeName)
	}

	doc, err := record.Fields(r)
	if err != nil {
		return s.reject(errors.OpUpdate, typeName, err)
	}
	return s.Update(ctx, schema, typeName, doc, q)
}

// Update sets the fields of a field-map on every matching record of typeName.
// _id and _timestamp must be present and are never changed.
func (s *ObjectStore) Update(ctx context.Context, schema, typeName string, doc storagemodels.Document, q storagemodels.Query) *record.Result {
	return s.run(ctx, errors.OpUpdate, typeName, func() ([]storagemodels.Document, error) {
		if err := checkBase(typeName, doc); err != nil {
			return nil, err
		}
		return s.backend.Update(ctx, s.Partition(schema, typeName), doc, s.scope(q, typeName))
	})
}

// Remove deletes every matching record of typeName.
func (s *ObjectStore) Remove(ctx context.Context, schema, typeName string, q storagemodels.Query) *record.Result {
	return s.run(ctx, errors.OpRemove, typeName, func() ([]storagemodels.Document, error) {
		return s.backend.Remove(ctx, s.Partition(schema, typeName), s.scope(q, typeName))
	})
}

// run applies the steps every operation shares: the connection short-circuit,
// the call, connection-loss detection and the result envelope.
func (s *ObjectStore) run(ctx context.Context, op errors.Operation, typeName string, call func() ([]storagemodels.Document, error)) (res *record.Result) {
	if !s.backend.IsConnected() {
		return s.disconnected(op, typeName)
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Str("op", string(op)).Str("type", typeName).Interface("panic", p).Msg("operation panicked")
			res = record.NewKO(op, typeName, errors.NewStorageError(op, "", fmt.Errorf("panic: %v", p)))
		}
		s.metrics.observe(op, res.Code(), start)
	}()

	docs, err := call()
	if err != nil {
		if errors.IsConnection(err) {
			s.connectionLost(err)
		}
		s.log.Debug().Err(err).Str("op", string(op)).Str("type", typeName).Msg("operation failed")
		return record.NewKO(op, typeName, err)
	}
	return record.NewOK(op, typeName, docs)
}

func (s *ObjectStore) disconnected(op errors.Operation, typeName string) *record.Result {
	s.metrics.observe(op, record.CodeKO, time.Now())
	return record.NewKO(op, typeName, errors.NewConnectionError(s.backend.Name(), fmt.Errorf("not connected")))
}

func (s *ObjectStore) reject(op errors.Operation, typeName string, err error) *record.Result {
	s.metrics.observe(op, record.CodeKO, time.Now())
	return record.NewKO(op, typeName, err)
}

// connectionLost marks the backend disconnected. Only the first detector logs.
func (s *ObjectStore) connectionLost(err error) {
	if !s.backend.MarkDisconnected() {
		return
	}
	s.metrics.lost.Inc()
	s.log.Error().
		Err(err).
		Str("backend", s.backend.Name()).
		Str("transition", "connected->disconnected").
		Msg("lost connection to database")
}

// scope restricts a query to typeName in a union-schema partition.
func (s *ObjectStore) scope(q storagemodels.Query, typeName string) storagemodels.Query {
	if !s.union {
		return q
	}
	return q.And(storagemodels.Where(storagemodels.TypeField, storagemodels.OpEq, typeName))
}

// unscope drops the union-schema discriminator from returned documents.
func (s *ObjectStore) unscope(docs []storagemodels.Document) []storagemodels.Document {
	if !s.union {
		return docs
	}
	for _, doc := range docs {
		delete(doc, storagemodels.TypeField)
	}
	return docs
}

func checkBase(typeName string, doc storagemodels.Document) error {
	if doc == nil {
		return errors.NewInheritanceError(typeName, record.BaseFields...)
	}
	if missing := record.HasBaseFields(doc); len(missing) > 0 {
		return errors.NewInheritanceError(typeName, missing...)
	}
	return nil
}

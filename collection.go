/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"context"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/registry"
	"github.com/suparena/objectstore/storagemodels"
)

// Collection provides type-safe operations for records of type T within one
// schema. T is a pointer to a struct embedding record.Base.
type Collection[T record.Record] struct {
	store    *ObjectStore
	schema   string
	typeName string
}

// NewCollection creates a Collection for T.
func NewCollection[T record.Record](store *ObjectStore, schema string) *Collection[T] {
	return &Collection[T]{
		store:    store,
		schema:   schema,
		typeName: registry.TypeName[T](),
	}
}

// TypeName returns the record type name of T.
func (c *Collection[T]) TypeName() string { return c.typeName }

// Partition returns the partition the collection reads and writes.
func (c *Collection[T]) Partition() string { return c.store.Partition(c.schema, c.typeName) }

// Get returns the records matching the query, oldest first.
func (c *Collection[T]) Get(ctx context.Context, q storagemodels.Query) ([]T, error) {
	return record.Reconstruct[T](c.store.Get(ctx, c.schema, c.typeName, q))
}

// GetByID returns the record with the given id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, errors.NewIDError(id, "empty id")
	}
	found, err := c.Get(ctx, storagemodels.NewQuery(storagemodels.Where(storagemodels.IDField, storagemodels.OpEq, id)))
	if err != nil || len(found) == 0 {
		return zero, false, err
	}
	return found[0], true, nil
}

// Put stores a record and returns the stored copy with its id and timestamp.
func (c *Collection[T]) Put(ctx context.Context, r T) (T, error) {
	var zero T
	res := c.store.PutObject(ctx, c.schema, r)
	stored, err := record.Reconstruct[T](res)
	if err != nil {
		return zero, err
	}
	if len(stored) == 0 {
		return zero, errors.NewKOResultError(c.typeName, nil)
	}
	return stored[0], nil
}

// Update sets the fields of r on every matching record.
func (c *Collection[T]) Update(ctx context.Context, r T, q storagemodels.Query) (record.Counts, error) {
	return c.store.UpdateObject(ctx, c.schema, r, q).Counts()
}

// Remove deletes every matching record.
func (c *Collection[T]) Remove(ctx context.Context, q storagemodels.Query) (record.Counts, error) {
	return c.store.Remove(ctx, c.schema, c.typeName, q).Counts()
}

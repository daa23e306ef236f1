/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"sync/atomic"
	"time"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// Partition returns the name of the partition holding records of typeName.
func Partition(schema, typeName string) string {
	return schema + "_" + typeName
}

// Clock hands out creation timestamps in 100ns ticks.
// Values are strictly increasing across calls, even when the wall clock stalls
// or steps back.
type Clock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewClock creates a clock reading the wall time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockFunc creates a clock reading now.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next timestamp.
func (c *Clock) Next() int64 {
	t := c.now().UnixNano() / 100
	for {
		prev := c.last.Load()
		next := t
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// PrepareInsert validates a document for put and returns a copy stamped with
// a fresh _timestamp. The _id key must be present; an empty value asks the
// backend to assign one.
func PrepareInsert(doc storagemodels.Document, clock *Clock) (storagemodels.Document, error) {
	if _, ok := doc[storagemodels.IDField]; !ok {
		return nil, errors.NewDataError(storagemodels.IDField, "required")
	}
	if v := doc[storagemodels.IDField]; v != nil {
		if _, ok := v.(string); !ok {
			return nil, errors.NewDataError(storagemodels.IDField, "must be a string")
		}
	}

	out := doc.Clone()
	if out[storagemodels.IDField] == nil {
		out[storagemodels.IDField] = ""
	}
	out[storagemodels.TimestampField] = clock.Next()
	return out, nil
}

// PrepareUpdate validates a document for update and returns a copy without
// _id and _timestamp, which are never changed by an update.
func PrepareUpdate(doc storagemodels.Document) (storagemodels.Document, error) {
	for _, f := range []string{storagemodels.IDField, storagemodels.TimestampField} {
		if _, ok := doc[f]; !ok {
			return nil, errors.NewDataError(f, "required")
		}
	}

	out := doc.Clone()
	delete(out, storagemodels.IDField)
	delete(out, storagemodels.TimestampField)
	if len(out) == 0 {
		return nil, errors.NewDataError("", "nothing to update")
	}
	return out, nil
}

// UpdateCounts builds the payload of an update.
func UpdateCounts(matched, modified int64) []storagemodels.Document {
	return []storagemodels.Document{{
		storagemodels.MatchedCountField:  matched,
		storagemodels.ModifiedCountField: modified,
	}}
}

// RemoveCounts builds the payload of a remove.
func RemoveCounts(deleted int64) []storagemodels.Document {
	return []storagemodels.Document{{
		storagemodels.DeletedCountField: deleted,
	}}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/registry"
	"github.com/suparena/objectstore/storagemodels"
)

// Record is implemented by every persisted domain object. The unexported method
// is only provided by Base, so a type is a Record exactly when it embeds Base.
type Record interface {
	GetID() string
	GetTimestamp() int64
	base() *Base
}

// Base carries the reserved fields every record has.
// Records embed it by value and are handled through pointers.
type Base struct {
	ID        string `json:"_id"`
	Timestamp int64  `json:"_timestamp"`
}

// GetID returns the store-assigned identity, empty until the record is stored.
func (b *Base) GetID() string { return b.ID }

// GetTimestamp returns the store-assigned creation timestamp.
func (b *Base) GetTimestamp() int64 { return b.Timestamp }

func (b *Base) base() *Base { return b }

// BaseFields are the fields every serialized record carries.
var BaseFields = []string{storagemodels.IDField, storagemodels.TimestampField}

// Counts is the record update and remove results reconstruct into.
// It declares no fields of its own, so it accepts any payload shape.
type Counts struct {
	Base
	MatchedCount  int64 `json:"matched_count,omitempty"`
	ModifiedCount int64 `json:"modified_count,omitempty"`
	DeletedCount  int64 `json:"deleted_count,omitempty"`
}

// Fields serializes a record into its stored field-map.
// Integral numbers come back as int64 and the rest as float64.
func Fields(r Record) (storagemodels.Document, error) {
	if isNil(r) {
		return nil, errors.NewInheritanceError(registry.NameOf(r))
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc storagemodels.Document
	if err := decodeNumbers(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewInheritanceError(registry.NameOf(r))
	}

	// omitempty fields left out by the encoder are stored as their zero value.
	for _, f := range registry.FieldsOf(reflect.TypeOf(r)) {
		if _, ok := doc[f.Name]; ok {
			continue
		}
		zero, err := json.Marshal(reflect.Zero(f.Type).Interface())
		if err != nil {
			return nil, err
		}
		v, err := ParseValue(zero)
		if err != nil {
			return nil, err
		}
		doc[f.Name] = v
	}
	return doc, nil
}

// ParseDocument decodes a JSON object into a field-map, keeping integers exact.
func ParseDocument(data []byte) (storagemodels.Document, error) {
	var doc storagemodels.Document
	if err := decodeNumbers(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewDataError("", "expected a JSON object")
	}
	return doc, nil
}

// ParseValue decodes a single JSON value, keeping integers exact.
func ParseValue(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON value %q", data)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumber(v), nil
}

// HasBaseFields reports the base fields missing from a field-map.
func HasBaseFields(doc storagemodels.Document) (missing []string) {
	for _, f := range BaseFields {
		if _, ok := doc[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func isNil(r Record) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// decodeNumbers unmarshals JSON keeping integers exact.
func decodeNumbers(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	normalizeInto(out)
	return nil
}

func normalizeInto(out any) {
	switch tv := out.(type) {
	case *storagemodels.Document:
		for k, v := range *tv {
			(*tv)[k] = normalizeNumber(v)
		}
	case *[]storagemodels.Document:
		for _, doc := range *tv {
			for k, v := range doc {
				doc[k] = normalizeNumber(v)
			}
		}
	}
}

func normalizeNumber(v any) any {
	switch tv := v.(type) {
	case json.Number:
		if n, err := tv.Int64(); err == nil {
			return n
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	case map[string]any:
		for k, inner := range tv {
			tv[k] = normalizeNumber(inner)
		}
		return tv
	case []any:
		for i, inner := range tv {
			tv[i] = normalizeNumber(inner)
		}
		return tv
	}
	return v
}

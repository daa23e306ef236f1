/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"sort"
)

// Reserved field names. They are excluded from the declared field set of a record.
const (
	// IDField holds the external identity of a stored document.
	IDField = "_id"
	// TimestampField holds the store-assigned creation timestamp, the default sort key.
	TimestampField = "_timestamp"
	// TypeField discriminates record types sharing one union-schema partition.
	TypeField = "_obj_name"

	MatchedCountField  = "matched_count"
	ModifiedCountField = "modified_count"
	DeletedCountField  = "deleted_count"
)

var reservedFields = map[string]struct{}{
	IDField:            {},
	TimestampField:     {},
	TypeField:          {},
	MatchedCountField:  {},
	ModifiedCountField: {},
	DeletedCountField:  {},
}

// IsReserved reports whether name is a reserved field.
func IsReserved(name string) bool {
	_, ok := reservedFields[name]
	return ok
}

// Document is a schemaless stored record keyed by field name.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ID returns the identity of the document, or "" when absent or not a string.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// UserFields returns the sorted non-reserved field names of the document.
func (d Document) UserFields() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		if !IsReserved(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Operator is a comparison in the generic condition algebra.
type Operator string

const (
	OpEq    Operator = "="
	OpNe    Operator = "!="
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpIn    Operator = "in"
	OpNotIn Operator = "not in"
)

// Operators lists every supported operator.
var Operators = []Operator{OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn}

// Valid reports whether op is part of the condition algebra.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// IsSet reports whether the operator compares against a list of values.
func (op Operator) IsSet() bool {
	return op == OpIn || op == OpNotIn
}

// Condition is a single (field, operator, value) filter term.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// IsVacuousID reports whether the condition targets the identity field with an
// empty value. Such a condition matches every document and is skipped.
func (c Condition) IsVacuousID() bool {
	if c.Field != IDField {
		return false
	}
	switch tv := c.Value.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case []string:
		return len(tv) == 0
	case []any:
		return len(tv) == 0
	}
	return false
}

// Where builds a Condition.
func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// Query carries the AND-joined conditions of a request and an optional native filter.
// NativeFilter is only applied when UseNative is set.
type Query struct {
	Conditions   []Condition
	NativeFilter string
	UseNative    bool
}

// NewQuery creates a query from conditions.
func NewQuery(conditions ...Condition) Query {
	return Query{Conditions: conditions}
}

// WithNative returns a copy of the query that also applies a backend-native filter.
func (q Query) WithNative(filter string) Query {
	q.NativeFilter = filter
	q.UseNative = true
	return q
}

// And returns a copy of the query with additional conditions.
func (q Query) And(conditions ...Condition) Query {
	merged := make([]Condition, 0, len(q.Conditions)+len(conditions))
	merged = append(merged, q.Conditions...)
	merged = append(merged, conditions...)
	q.Conditions = merged
	return q
}

// ValueList converts a set-operator value into a slice.
// A single non-slice value is treated as a one-element list.
func ValueList(v any) ([]any, bool) {
	switch tv := v.(type) {
	case nil:
		return nil, false
	case []any:
		return tv, true
	case []string:
		out := make([]any, len(tv))
		for i, s := range tv {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(tv))
		for i, n := range tv {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(tv))
		for i, n := range tv {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(tv))
		for i, n := range tv {
			out[i] = n
		}
		return out, true
	case []bool:
		out := make([]any, len(tv))
		for i, b := range tv {
			out[i] = b
		}
		return out, true
	}
	return []any{v}, true
}

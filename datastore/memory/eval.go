/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// matcher is a compiled condition list.
type matcher []storagemodels.Condition

// compile validates a query. The memory backend has no native filter language.
func compile(q storagemodels.Query) (matcher, error) {
	if q.UseNative && strings.TrimSpace(q.NativeFilter) != "" {
		return nil, errors.NewCriteriaError("", "native filters are not supported by the memory backend", nil)
	}

	m := make(matcher, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		if !c.Op.Valid() {
			return nil, errors.NewCriteriaError(c.Field, fmt.Sprintf("unknown operator %q", c.Op), nil)
		}
		if c.IsVacuousID() {
			continue
		}
		if c.Op.IsSet() {
			if _, ok := storagemodels.ValueList(c.Value); !ok {
				return nil, errors.NewCriteriaError(c.Field, fmt.Sprintf("operator %q needs a list of values", c.Op), nil)
			}
		}
		m = append(m, c)
	}
	return m, nil
}

// match reports whether doc satisfies every condition.
func (m matcher) match(doc storagemodels.Document) bool {
	for _, c := range m {
		if !evaluate(c, doc[c.Field]) {
			return false
		}
	}
	return true
}

func evaluate(c storagemodels.Condition, actual any) bool {
	switch c.Op {
	case storagemodels.OpEq:
		return equal(actual, c.Value)
	case storagemodels.OpNe:
		return !equal(actual, c.Value)
	case storagemodels.OpLt:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp < 0
	case storagemodels.OpLte:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp <= 0
	case storagemodels.OpGt:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp > 0
	case storagemodels.OpGte:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp >= 0
	case storagemodels.OpIn:
		values, _ := storagemodels.ValueList(c.Value)
		return containsValue(values, actual)
	case storagemodels.OpNotIn:
		values, _ := storagemodels.ValueList(c.Value)
		return !containsValue(values, actual)
	}
	return false
}

func containsValue(values []any, actual any) bool {
	for _, v := range values {
		if equal(actual, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compare(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two scalars of compatible kinds. Numbers compare across
// integer and float types.
func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmpFloat(af, bf), true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

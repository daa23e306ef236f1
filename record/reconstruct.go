/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goccy/go-json"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/registry"
	"github.com/suparena/objectstore/storagemodels"
)

// Reconstruct builds one new record of the prototype's concrete type per
// document in the payload, in store order. Every document must carry exactly
// the prototype's declared fields (reserved fields aside) unless the prototype
// declares none.
func (r *Result) Reconstruct(prototype Record) ([]Record, error) {
	if r.code != CodeOK {
		return nil, errors.NewKOResultError(r.subject, r.err)
	}
	if isNil(prototype) {
		return nil, errors.NewInheritanceError(registry.NameOf(prototype))
	}

	pt := reflect.TypeOf(prototype)
	if pt.Kind() != reflect.Pointer || pt.Elem().Kind() != reflect.Struct {
		return nil, errors.NewInheritanceError(pt.String())
	}
	declared := registry.DeclaredFields(pt)
	typeName := registry.NameOf(prototype)

	var raws []map[string]json.RawMessage
	if err := json.Unmarshal(r.payload, &raws); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", r.subject, err)
	}

	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if len(declared) > 0 {
			got := userKeys(raw)
			if !sameFields(declared, got) {
				return nil, errors.NewDistinctAttributesError(typeName, declared, got)
			}
		}

		buf, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		obj := reflect.New(pt.Elem()).Interface()
		if err := json.Unmarshal(buf, obj); err != nil {
			return nil, fmt.Errorf("reconstructing %s: %w", typeName, err)
		}
		out = append(out, obj.(Record))
	}
	return out, nil
}

// Reconstruct is the typed form of (*Result).Reconstruct. T is a pointer to
// a struct embedding Base.
func Reconstruct[T Record](r *Result) ([]T, error) {
	pt := reflect.TypeOf((*T)(nil)).Elem()
	if pt.Kind() != reflect.Pointer || pt.Elem().Kind() != reflect.Struct {
		return nil, errors.NewInheritanceError(pt.String())
	}
	prototype, ok := reflect.New(pt.Elem()).Interface().(Record)
	if !ok {
		return nil, errors.NewInheritanceError(pt.String())
	}

	records, err := r.Reconstruct(prototype)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	for i, rec := range records {
		out[i] = rec.(T)
	}
	return out, nil
}

func userKeys(raw map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if !storagemodels.IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// sameFields compares two sorted name lists.
func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

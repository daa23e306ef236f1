/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/objectstore/storagemodels"
)

// Field is one serialized field of a record type.
type Field struct {
	Name string
	Type reflect.Type
}

// fieldRegistry caches the declared field set of each record type.
var fieldRegistry sync.Map // reflect.Type -> []Field

// FieldsOf returns the non-reserved fields a struct type serializes to, sorted
// by name. Names follow the json tags; embedded structs without a tag name are
// flattened the same way encoding/json flattens them. Fields tagged omitempty
// are listed even though encoding may leave them out.
func FieldsOf(t reflect.Type) []Field {
	t = baseType(t)
	if cached, ok := fieldRegistry.Load(t); ok {
		return cached.([]Field)
	}

	seen := make(map[string]depthField)
	if t.Kind() == reflect.Struct {
		collectFields(t, 0, seen, map[reflect.Type]bool{})
	}

	fields := make([]Field, 0, len(seen))
	for name, f := range seen {
		if !storagemodels.IsReserved(name) {
			fields = append(fields, Field{Name: name, Type: f.typ})
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	actual, _ := fieldRegistry.LoadOrStore(t, fields)
	return actual.([]Field)
}

// DeclaredFields returns the sorted names of FieldsOf(t).
func DeclaredFields(t reflect.Type) []string {
	fields := FieldsOf(t)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// depthField records the embedding depth a field was found at; the shallowest
// declaration of a name wins.
type depthField struct {
	typ   reflect.Type
	depth int
}

func collectFields(t reflect.Type, depth int, seen map[string]depthField, visiting map[reflect.Type]bool) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, skip := jsonName(f)
		if skip {
			continue
		}

		if f.Anonymous && name == "" {
			ft := baseType(f.Type)
			if ft.Kind() == reflect.Struct {
				collectFields(ft, depth+1, seen, visiting)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if prev, dup := seen[name]; !dup || depth < prev.depth {
			seen[name] = depthField{typ: f.Type, depth: depth}
		}
	}
}

// jsonName returns the tag name of a field and whether it is excluded from encoding.
func jsonName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, false
}

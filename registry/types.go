/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// typeNames maps a Go type to the record type name used in partition keys.
var (
	typeNames = make(map[reflect.Type]string)
	nameTypes = make(map[string]reflect.Type)
	namesMu   sync.RWMutex
)

// RegisterType associates the Go type T with a record type name.
// If the name is already taken by another type, it panics to prevent accidental overrides.
func RegisterType[T any](name string) {
	t := baseType(reflect.TypeOf((*T)(nil)).Elem())

	namesMu.Lock()
	defer namesMu.Unlock()
	if prev, exists := nameTypes[name]; exists && prev != t {
		panic(fmt.Sprintf("type registry: name %q already registered for %s", name, prev))
	}
	typeNames[t] = name
	nameTypes[name] = t
}

// TypeName returns the record type name of T: the registered name if any,
// otherwise the Go type name with pointers removed.
func TypeName[T any]() string {
	return nameOf(reflect.TypeOf((*T)(nil)).Elem())
}

// NameOf returns the record type name of the dynamic type of v.
func NameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return nameOf(reflect.TypeOf(v))
}

func nameOf(t reflect.Type) string {
	t = baseType(t)

	namesMu.RLock()
	name, ok := typeNames[t]
	namesMu.RUnlock()
	if ok {
		return name
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

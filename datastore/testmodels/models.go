/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import "github.com/suparena/objectstore/record"

// Widget is the record most tests store.
type Widget struct {
	record.Base
	IntArg  int    `json:"int_arg"`
	BoolArg bool   `json:"bool_arg"`
	StrArg  string `json:"str_arg"`
}

// Gadget shares int_arg with Widget but declares a different field set.
type Gadget struct {
	record.Base
	IntArg int     `json:"int_arg"`
	Weight float64 `json:"weight"`
}

// Marker declares no fields of its own.
type Marker struct {
	record.Base
}

// Profile nests values that are not scalars.
type Profile struct {
	record.Base
	Name  string            `json:"name"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

// Note leaves zero-valued fields out of its encoding.
type Note struct {
	record.Base
	Title string   `json:"title"`
	Count int      `json:"count,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// NewWidget builds an unsaved Widget.
func NewWidget(i int, b bool, s string) *Widget {
	return &Widget{IntArg: i, BoolArg: b, StrArg: s}
}

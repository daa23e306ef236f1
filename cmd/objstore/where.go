/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/storagemodels"
)

// parseWhere parses "field op value". The leftmost operator wins; at the same
// position the longer one does, so "a <= 1" is not read as "a < = 1".
func parseWhere(expr string) (storagemodels.Condition, error) {
	best, bestAt, bestLen := storagemodels.Operator(""), -1, 0
	for _, op := range storagemodels.Operators {
		sep := string(op)
		if op.IsSet() {
			sep = " " + sep + " "
		}
		at := strings.Index(expr, sep)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(sep) > bestLen) {
			best, bestAt, bestLen = op, at, len(sep)
		}
	}
	if bestAt < 0 {
		return storagemodels.Condition{}, fmt.Errorf("condition %q has no operator", expr)
	}

	field := strings.TrimSpace(expr[:bestAt])
	if field == "" {
		return storagemodels.Condition{}, fmt.Errorf("condition %q has no field", expr)
	}
	return storagemodels.Where(field, best, parseValue(strings.TrimSpace(expr[bestAt+bestLen:]))), nil
}

func parseWhereAll(exprs []string) ([]storagemodels.Condition, error) {
	conditions := make([]storagemodels.Condition, 0, len(exprs))
	for _, expr := range exprs {
		c, err := parseWhere(expr)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

// parseValue reads raw as JSON, then as a date-time, and otherwise keeps it as
// a plain string. Quote a date-time to compare it as a string.
func parseValue(raw string) any {
	if v, err := record.ParseValue([]byte(raw)); err == nil {
		return v
	}
	if raw != "" {
		if dt, err := strfmt.ParseDateTime(raw); err == nil {
			return time.Time(dt)
		}
	}
	return raw
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// maxInOperands is the DynamoDB limit on the operands of IN.
const maxInOperands = 100

var comparators = map[storagemodels.Operator]string{
	storagemodels.OpEq:  "=",
	storagemodels.OpNe:  "<>",
	storagemodels.OpLt:  "<",
	storagemodels.OpLte: "<=",
	storagemodels.OpGt:  ">",
	storagemodels.OpGte: ">=",
}

// expression collects placeholders while an expression is built.
type expression struct {
	names  map[string]string
	values map[string]types.AttributeValue
	byName map[string]string
}

func newExpression() *expression {
	return &expression{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
		byName: make(map[string]string),
	}
}

func (e *expression) name(field string) string {
	if p, ok := e.byName[field]; ok {
		return p
	}
	p := fmt.Sprintf("#n%d", len(e.byName))
	e.byName[field] = p
	e.names[p] = field
	return p
}

func (e *expression) value(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", err
	}
	p := fmt.Sprintf(":v%d", len(e.values))
	e.values[p] = av
	return p, nil
}

// Names returns the attribute name placeholders, nil when unused.
func (e *expression) Names() map[string]string {
	if len(e.names) == 0 {
		return nil
	}
	return e.names
}

// Values returns the attribute value placeholders, nil when unused.
func (e *expression) Values() map[string]types.AttributeValue {
	if len(e.values) == 0 {
		return nil
	}
	return e.values
}

// filter is a translated query.
type filter struct {
	*expression
	Expression *string
}

// buildFilter translates a query into a scan FilterExpression. A native
// filter is a FilterExpression fragment over attribute names and functions,
// appended in parentheses.
func buildFilter(q storagemodels.Query) (*filter, error) {
	expr := newExpression()
	clauses := make([]string, 0, len(q.Conditions)+1)

	for _, c := range q.Conditions {
		if c.Field == "" {
			return nil, errors.NewCriteriaError("", "empty field name", nil)
		}
		if !c.Op.Valid() {
			return nil, errors.NewCriteriaError(c.Field, fmt.Sprintf("unknown operator %q", c.Op), nil)
		}
		if c.IsVacuousID() {
			continue
		}

		clause, skip, err := buildClause(expr, c)
		if err != nil {
			return nil, err
		}
		if !skip {
			clauses = append(clauses, clause)
		}
	}

	if q.UseNative {
		if native := strings.TrimSpace(q.NativeFilter); native != "" {
			clauses = append(clauses, "("+native+")")
		}
	}

	f := &filter{expression: expr}
	if len(clauses) > 0 {
		f.Expression = aws.String(strings.Join(clauses, " AND "))
	}
	return f, nil
}

func buildClause(expr *expression, c storagemodels.Condition) (string, bool, error) {
	if c.Field == storagemodels.IDField {
		if err := checkIDValue(c.Value); err != nil {
			return "", false, errors.NewCriteriaError(c.Field, "invalid id", err)
		}
	}
	name := expr.name(c.Field)

	if cmp, ok := comparators[c.Op]; ok {
		v, err := expr.value(c.Value)
		if err != nil {
			return "", false, errors.NewCriteriaError(c.Field, "unsupported value", err)
		}
		return fmt.Sprintf("%s %s %s", name, cmp, v), false, nil
	}

	list, _ := storagemodels.ValueList(c.Value)
	switch {
	case len(list) == 0 && c.Op == storagemodels.OpNotIn:
		return "", true, nil
	case len(list) == 0:
		return "", false, errors.NewCriteriaError(c.Field, "empty value list", nil)
	case len(list) > maxInOperands:
		return "", false, errors.NewCriteriaError(c.Field, fmt.Sprintf("more than %d values", maxInOperands), nil)
	}

	placeholders := make([]string, 0, len(list))
	for _, item := range list {
		v, err := expr.value(item)
		if err != nil {
			return "", false, errors.NewCriteriaError(c.Field, "unsupported value", err)
		}
		placeholders = append(placeholders, v)
	}
	in := fmt.Sprintf("%s IN (%s)", name, strings.Join(placeholders, ", "))
	if c.Op == storagemodels.OpNotIn {
		return "NOT (" + in + ")", false, nil
	}
	return in, false, nil
}

// checkIDValue accepts the string forms an identity condition may carry.
func checkIDValue(v any) error {
	switch tv := v.(type) {
	case string:
		return nil
	case []string:
		return nil
	case []any:
		for _, item := range tv {
			if _, ok := item.(string); !ok {
				return errors.NewIDError(fmt.Sprint(item), "id values must be strings")
			}
		}
		return nil
	}
	return errors.NewIDError(fmt.Sprint(v), "id values must be strings")
}

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #n0 = :v0, #n1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
func buildUpdateExpression(updates storagemodels.Document) (string, *expression, error) {
	if len(updates) == 0 {
		return "", nil, errors.NewDataError("", "nothing to update")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	expr := newExpression()
	setClauses := make([]string, 0, len(fields))
	for _, field := range fields {
		v, err := expr.value(updates[field])
		if err != nil {
			return "", nil, fmt.Errorf("unhandled update value type for field '%s': %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", expr.name(field), v))
	}
	return "SET " + strings.Join(setClauses, ", "), expr, nil
}

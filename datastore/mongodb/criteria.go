/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

var operators = map[storagemodels.Operator]string{
	storagemodels.OpEq:    "$eq",
	storagemodels.OpNe:    "$ne",
	storagemodels.OpLt:    "$lt",
	storagemodels.OpLte:   "$lte",
	storagemodels.OpGt:    "$gt",
	storagemodels.OpGte:   "$gte",
	storagemodels.OpIn:    "$in",
	storagemodels.OpNotIn: "$nin",
}

// BuildFilter translates a query into a MongoDB filter. Conditions are
// AND-joined; identity values go through the id codec; the native filter is
// extended JSON and only applied when the query asks for it.
func BuildFilter(q storagemodels.Query) (bson.D, error) {
	branches := bson.A{}

	for _, c := range q.Conditions {
		if c.Field == "" {
			return nil, errors.NewCriteriaError("", "empty field name", nil)
		}
		op, ok := operators[c.Op]
		if !ok {
			return nil, errors.NewCriteriaError(c.Field, fmt.Sprintf("unknown operator %q", c.Op), nil)
		}
		if c.IsVacuousID() {
			continue
		}

		value := c.Value
		if c.Op.IsSet() {
			list, ok := storagemodels.ValueList(value)
			if !ok {
				return nil, errors.NewCriteriaError(c.Field, fmt.Sprintf("operator %q needs a list of values", c.Op), nil)
			}
			value = list
		}
		if c.Field == storagemodels.IDField {
			encoded, err := encodeIDValue(value)
			if err != nil {
				return nil, errors.NewCriteriaError(c.Field, "invalid id", err)
			}
			value = encoded
		}

		branches = append(branches, bson.D{{Key: c.Field, Value: bson.D{{Key: op, Value: value}}}})
	}

	if q.UseNative && strings.TrimSpace(q.NativeFilter) != "" {
		var native bson.D
		if err := bson.UnmarshalExtJSON([]byte(q.NativeFilter), false, &native); err != nil {
			return nil, errors.NewCriteriaError("", "native filter", err)
		}
		if len(native) > 0 {
			branches = append(branches, native)
		}
	}

	if len(branches) == 0 {
		return bson.D{}, nil
	}
	return bson.D{{Key: "$and", Value: branches}}, nil
}

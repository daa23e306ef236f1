/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

func TestBuildFilterEmpty(t *testing.T) {
	f, err := buildFilter(storagemodels.NewQuery())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.Expression != nil {
		t.Errorf("Expected no expression, got %q", *f.Expression)
	}
	if f.Names() != nil || f.Values() != nil {
		t.Error("Expected no placeholders")
	}
}

func TestBuildFilterComparators(t *testing.T) {
	tests := []struct {
		op   storagemodels.Operator
		want string
	}{
		{storagemodels.OpEq, "#n0 = :v0"},
		{storagemodels.OpNe, "#n0 <> :v0"},
		{storagemodels.OpLt, "#n0 < :v0"},
		{storagemodels.OpLte, "#n0 <= :v0"},
		{storagemodels.OpGt, "#n0 > :v0"},
		{storagemodels.OpGte, "#n0 >= :v0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f, err := buildFilter(storagemodels.NewQuery(storagemodels.Where("int_arg", tt.op, 5)))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if *f.Expression != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, *f.Expression)
			}
			if f.Names()["#n0"] != "int_arg" {
				t.Errorf("Expected #n0 to name int_arg, got %v", f.Names())
			}
			n, ok := f.Values()[":v0"].(*types.AttributeValueMemberN)
			if !ok || n.Value != "5" {
				t.Errorf("Expected :v0 = N(5), got %#v", f.Values()[":v0"])
			}
		})
	}
}

func TestBuildFilterSets(t *testing.T) {
	f, err := buildFilter(storagemodels.NewQuery(
		storagemodels.Where("str_arg", storagemodels.OpIn, []string{"a", "b"}),
		storagemodels.Where("str_arg", storagemodels.OpNotIn, []string{"c"}),
	))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := "#n0 IN (:v0, :v1) AND NOT (#n0 IN (:v2))"
	if *f.Expression != want {
		t.Errorf("Expected %q, got %q", want, *f.Expression)
	}
	if len(f.Names()) != 1 {
		t.Errorf("Expected the field placeholder to be reused, got %v", f.Names())
	}
	if len(f.Values()) != 3 {
		t.Errorf("Expected 3 values, got %d", len(f.Values()))
	}
}

func TestBuildFilterEmptyLists(t *testing.T) {
	_, err := buildFilter(storagemodels.NewQuery(storagemodels.Where("str_arg", storagemodels.OpIn, []string{})))
	if !errors.IsCriteria(err) {
		t.Errorf("Expected CriteriaError for an empty in list, got %v", err)
	}

	f, err := buildFilter(storagemodels.NewQuery(storagemodels.Where("str_arg", storagemodels.OpNotIn, []string{})))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.Expression != nil {
		t.Errorf("An empty not in list matches everything, got %q", *f.Expression)
	}
}

func TestBuildFilterIdentity(t *testing.T) {
	f, err := buildFilter(storagemodels.NewQuery(
		storagemodels.Where("_id", storagemodels.OpEq, ""),
		storagemodels.Where("_id", storagemodels.OpIn, []string{"a", "b"}),
	))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *f.Expression != "#n0 IN (:v0, :v1)" {
		t.Errorf("Unexpected expression %q", *f.Expression)
	}

	_, err = buildFilter(storagemodels.NewQuery(storagemodels.Where("_id", storagemodels.OpEq, 3)))
	if !errors.IsCriteria(err) || !errors.IsID(err) {
		t.Errorf("Expected CriteriaError wrapping IDError, got %v", err)
	}
}

func TestBuildFilterNative(t *testing.T) {
	q := storagemodels.NewQuery(storagemodels.Where("int_arg", storagemodels.OpGt, 1)).
		WithNative("attribute_exists(str_arg)")

	f, err := buildFilter(q)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "#n0 > :v0 AND (attribute_exists(str_arg))"
	if *f.Expression != want {
		t.Errorf("Expected %q, got %q", want, *f.Expression)
	}

	q.UseNative = false
	f, err = buildFilter(q)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *f.Expression != "#n0 > :v0" {
		t.Errorf("Native filter should be ignored without the flag, got %q", *f.Expression)
	}
}

func TestBuildFilterUnknownOperator(t *testing.T) {
	_, err := buildFilter(storagemodels.NewQuery(storagemodels.Where("int_arg", "like", 1)))
	if !errors.IsCriteria(err) {
		t.Errorf("Expected CriteriaError, got %v", err)
	}
}

func TestBuildUpdateExpression(t *testing.T) {
	expr, placeholders, err := buildUpdateExpression(storagemodels.Document{"str_arg": "x", "int_arg": 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Fields are sorted for a stable expression.
	if expr != "SET #n0 = :v0, #n1 = :v1" {
		t.Errorf("Unexpected update expression %q", expr)
	}
	if placeholders.Names()["#n0"] != "int_arg" || placeholders.Names()["#n1"] != "str_arg" {
		t.Errorf("Unexpected names %v", placeholders.Names())
	}

	item := map[string]types.AttributeValue{
		"_id":     &types.AttributeValueMemberS{Value: "a"},
		"int_arg": &types.AttributeValueMemberN{Value: "2"},
		"str_arg": &types.AttributeValueMemberS{Value: "x"},
	}
	if !unchanged(item, placeholders) {
		t.Error("Item already holds the update values")
	}
	item["str_arg"] = &types.AttributeValueMemberS{Value: "y"}
	if unchanged(item, placeholders) {
		t.Error("Item differs from the update values")
	}

	if _, _, err := buildUpdateExpression(storagemodels.Document{}); !errors.IsData(err) {
		t.Errorf("Expected DataError, got %v", err)
	}
}

func TestItemToDocument(t *testing.T) {
	item := map[string]types.AttributeValue{
		"_id":        &types.AttributeValueMemberS{Value: "a"},
		"_timestamp": &types.AttributeValueMemberN{Value: "17000000000000001"},
		"weight":     &types.AttributeValueMemberN{Value: "2.5"},
		"bool_arg":   &types.AttributeValueMemberBOOL{Value: true},
		"tags": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberN{Value: "1"},
		}},
	}

	doc, err := itemToDocument(item)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc["_timestamp"] != int64(17000000000000001) {
		t.Errorf("Expected exact int64 timestamp, got %#v", doc["_timestamp"])
	}
	if doc["weight"] != 2.5 {
		t.Errorf("Expected 2.5, got %#v", doc["weight"])
	}
	if doc["bool_arg"] != true {
		t.Errorf("Expected true, got %#v", doc["bool_arg"])
	}
	tags, ok := doc["tags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != int64(1) {
		t.Errorf("Expected [1], got %#v", doc["tags"])
	}
}

func TestSortByTimestamp(t *testing.T) {
	docs := []storagemodels.Document{
		{"_id": "c", "_timestamp": int64(3)},
		{"_id": "a", "_timestamp": int64(1)},
		{"_id": "b", "_timestamp": int64(2)},
	}
	sortByTimestamp(docs)
	for i, want := range []string{"a", "b", "c"} {
		if docs[i].ID() != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, docs[i].ID())
		}
	}
}

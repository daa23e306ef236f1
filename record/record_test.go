/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/objectstore/datastore/testmodels"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/storagemodels"
)

func TestFields(t *testing.T) {
	w := testmodels.NewWidget(7, true, "seven")
	w.ID = "abc"
	w.Timestamp = 16000000000000001

	doc, err := record.Fields(w)
	require.NoError(t, err)

	assert.Equal(t, "abc", doc[storagemodels.IDField])
	assert.Equal(t, int64(16000000000000001), doc[storagemodels.TimestampField])
	assert.Equal(t, int64(7), doc["int_arg"])
	assert.Equal(t, true, doc["bool_arg"])
	assert.Equal(t, "seven", doc["str_arg"])
	assert.Equal(t, []string{"bool_arg", "int_arg", "str_arg"}, doc.UserFields())
}

func TestFieldsFloatsAndNesting(t *testing.T) {
	g := &testmodels.Gadget{IntArg: 1, Weight: 2.5}
	doc, err := record.Fields(g)
	require.NoError(t, err)
	assert.Equal(t, 2.5, doc["weight"])

	p := &testmodels.Profile{Name: "n", Tags: []string{"a"}, Attrs: map[string]string{"k": "v"}}
	doc, err = record.Fields(p)
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, doc["tags"])
	assert.Equal(t, map[string]any{"k": "v"}, doc["attrs"])
}

func TestFieldsKeepsOmittedZeroValues(t *testing.T) {
	doc, err := record.Fields(&testmodels.Note{Title: "t"})
	require.NoError(t, err)

	assert.Equal(t, "t", doc["title"])
	assert.Equal(t, int64(0), doc["count"])
	assert.Contains(t, doc, "tags")
	assert.Nil(t, doc["tags"])
	assert.Equal(t, []string{"count", "tags", "title"}, doc.UserFields())

	doc, err = record.Fields(&testmodels.Note{Title: "t", Count: 3, Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc["count"])
	assert.Equal(t, []any{"a"}, doc["tags"])
}

func TestFieldsNil(t *testing.T) {
	var w *testmodels.Widget
	_, err := record.Fields(w)
	assert.True(t, errors.IsInheritance(err))

	_, err = record.Fields(nil)
	assert.True(t, errors.IsInheritance(err))
}

func TestHasBaseFields(t *testing.T) {
	missing := record.HasBaseFields(storagemodels.Document{"int_arg": 1})
	assert.Equal(t, []string{"_id", "_timestamp"}, missing)

	missing = record.HasBaseFields(storagemodels.Document{"_id": "", "_timestamp": 0})
	assert.Empty(t, missing)
}

func TestBaseAccessors(t *testing.T) {
	w := &testmodels.Widget{Base: record.Base{ID: "x", Timestamp: 42}}
	var r record.Record = w
	assert.Equal(t, "x", r.GetID())
	assert.Equal(t, int64(42), r.GetTimestamp())
}

func TestParseDocument(t *testing.T) {
	doc, err := record.ParseDocument([]byte(`{"_id": "a", "int_arg": 9007199254740993, "w": 1.5, "nested": {"n": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), doc["int_arg"])
	assert.Equal(t, 1.5, doc["w"])
	assert.Equal(t, map[string]any{"n": int64(2)}, doc["nested"])

	_, err = record.ParseDocument([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = record.ParseDocument([]byte(`null`))
	assert.True(t, errors.IsData(err))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`5`, int64(5)},
		{`2.5`, 2.5},
		{`true`, true},
		{`"5"`, "5"},
		{`[1, "a"]`, []any{int64(1), "a"}},
		{`null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := record.ParseValue([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := record.ParseValue([]byte(`wrong`))
	assert.Error(t, err)
}

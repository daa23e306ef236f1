/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/objectstore/datastore/memory"
	"github.com/suparena/objectstore/datastore/testmodels"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/storagemodels"
)

const schema = "TEST"

// syncBuffer is a log sink safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestStore(t *testing.T, opts ...Option) (*ObjectStore, *memory.Store) {
	t.Helper()
	backend := memory.New()
	return New(backend, opts...), backend
}

func putWidget(t *testing.T, s *ObjectStore, w *testmodels.Widget) *testmodels.Widget {
	t.Helper()
	res := s.PutObject(context.Background(), schema, w)
	require.True(t, res.OK(), res.Message())
	stored, err := record.Reconstruct[*testmodels.Widget](res)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	return stored[0]
}

func TestRoundTrip(t *testing.T) {
	s, backend := newTestStore(t)
	in := testmodels.NewWidget(5, false, "x")

	out := putWidget(t, s, in)
	assert.NotEmpty(t, out.ID)
	assert.NotZero(t, out.Timestamp)
	assert.Equal(t, in.IntArg, out.IntArg)
	assert.Equal(t, in.BoolArg, out.BoolArg)
	assert.Equal(t, in.StrArg, out.StrArg)
	assert.Equal(t, 1, backend.Count("TEST_Widget"))
}

func TestRoundTripZeroValuedOmitEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	res := s.PutObject(context.Background(), schema, &testmodels.Note{Title: "empty"})
	require.True(t, res.OK(), res.Message())
	stored, err := record.Reconstruct[*testmodels.Note](res)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	res = s.Get(context.Background(), schema, "Note", storagemodels.NewQuery(
		storagemodels.Where(storagemodels.IDField, storagemodels.OpEq, stored[0].ID),
	))
	require.True(t, res.OK(), res.Message())
	notes, err := record.Reconstruct[*testmodels.Note](res)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "empty", notes[0].Title)
	assert.Zero(t, notes[0].Count)
	assert.Empty(t, notes[0].Tags)
}

func TestInsertThenFetchByID(t *testing.T) {
	s, _ := newTestStore(t)
	stored := putWidget(t, s, testmodels.NewWidget(5, false, "x"))
	putWidget(t, s, testmodels.NewWidget(6, true, "y"))

	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery(
		storagemodels.Where(storagemodels.IDField, storagemodels.OpEq, stored.ID),
	))
	require.True(t, res.OK(), res.Message())

	widgets, err := record.Reconstruct[*testmodels.Widget](res)
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	assert.Equal(t, 5, widgets[0].IntArg)
}

func TestFilterMiss(t *testing.T) {
	s, _ := newTestStore(t)
	putWidget(t, s, testmodels.NewWidget(5, false, "x"))

	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery(
		storagemodels.Where("int_arg", storagemodels.OpEq, "wrong"),
	))
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, 0, res.Len())
}

func TestMultiConditionAnd(t *testing.T) {
	s, _ := newTestStore(t)
	stored := putWidget(t, s, testmodels.NewWidget(5, false, "x"))

	match := []storagemodels.Condition{
		storagemodels.Where("int_arg", storagemodels.OpEq, 5),
		storagemodels.Where("bool_arg", storagemodels.OpEq, false),
		storagemodels.Where("str_arg", storagemodels.OpEq, "x"),
	}
	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery(match...))
	widgets, err := record.Reconstruct[*testmodels.Widget](res)
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	assert.Equal(t, stored.ID, widgets[0].ID)

	misses := []any{6, true, "y"}
	for i := range match {
		conds := append([]storagemodels.Condition(nil), match...)
		conds[i].Value = misses[i]
		t.Run(conds[i].Field, func(t *testing.T) {
			res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery(conds...))
			require.True(t, res.OK(), res.Message())
			assert.Equal(t, 0, res.Len())
		})
	}
}

func TestGetMissingPartition(t *testing.T) {
	s, _ := newTestStore(t)

	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
	assert.Equal(t, record.CodeKO, res.Code())
	assert.True(t, stderrors.Is(res.Err(), errors.ErrGet))
	assert.True(t, errors.IsSchema(res.Err()))
	assert.True(t, s.IsConnected(), "a schema error is not a connection loss")
}

func TestReconstructOtherType(t *testing.T) {
	s, _ := newTestStore(t)
	putWidget(t, s, testmodels.NewWidget(1, true, "a"))

	// Widget documents do not carry the Gadget field set.
	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
	_, err := record.Reconstruct[*testmodels.Gadget](res)
	assert.True(t, errors.IsDistinctAttributes(err))
}

func TestPutValidation(t *testing.T) {
	s, backend := newTestStore(t)

	t.Run("nil record", func(t *testing.T) {
		var w *testmodels.Widget
		res := s.PutObject(context.Background(), schema, w)
		assert.Equal(t, record.CodeKO, res.Code())
		assert.True(t, errors.IsInheritance(res.Err()))
	})

	t.Run("field-map without base fields", func(t *testing.T) {
		res := s.Put(context.Background(), schema, "Widget", storagemodels.Document{"int_arg": 1})
		assert.True(t, errors.IsInheritance(res.Err()))

		var inh *errors.InheritanceError
		require.True(t, stderrors.As(res.Err(), &inh))
		assert.Equal(t, []string{"_id", "_timestamp"}, inh.Missing)
	})

	t.Run("field-map with base fields", func(t *testing.T) {
		res := s.Put(context.Background(), schema, "Widget", storagemodels.Document{
			"_id": "", "_timestamp": 0, "int_arg": 1, "bool_arg": true, "str_arg": "m",
		})
		require.True(t, res.OK(), res.Message())
	})

	assert.Equal(t, int64(1), backend.Calls(errors.OpPut))
}

func TestUpdateObject(t *testing.T) {
	s, _ := newTestStore(t)
	a := putWidget(t, s, testmodels.NewWidget(1, true, "a"))
	putWidget(t, s, testmodels.NewWidget(2, true, "b"))

	a.StrArg = "changed"
	res := s.UpdateObject(context.Background(), schema, a, storagemodels.NewQuery(
		storagemodels.Where(storagemodels.IDField, storagemodels.OpEq, a.ID),
	))
	require.True(t, res.OK(), res.Message())

	counts, err := res.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.MatchedCount)
	assert.Equal(t, int64(1), counts.ModifiedCount)

	got := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery(
		storagemodels.Where("str_arg", storagemodels.OpEq, "changed"),
	))
	widgets, err := record.Reconstruct[*testmodels.Widget](got)
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	assert.Equal(t, a.ID, widgets[0].ID)
	assert.Equal(t, a.Timestamp, widgets[0].Timestamp)
}

func TestUpdateRequiresBaseFields(t *testing.T) {
	s, backend := newTestStore(t)
	putWidget(t, s, testmodels.NewWidget(1, true, "a"))

	res := s.Update(context.Background(), schema, "Widget", storagemodels.Document{"str_arg": "z"}, storagemodels.NewQuery())
	assert.True(t, errors.IsInheritance(res.Err()))
	assert.Equal(t, int64(0), backend.Calls(errors.OpUpdate))
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t)
	putWidget(t, s, testmodels.NewWidget(1, true, "a"))
	putWidget(t, s, testmodels.NewWidget(2, false, "b"))

	res := s.Remove(context.Background(), schema, "Widget", storagemodels.NewQuery(
		storagemodels.Where("bool_arg", storagemodels.OpEq, true),
	))
	counts, err := res.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.DeletedCount)

	left := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
	assert.Equal(t, 1, left.Len())
}

func TestConnectionLossShortCircuit(t *testing.T) {
	s, backend := newTestStore(t)
	backend.SetConnected(false)
	ctx := context.Background()
	w := testmodels.NewWidget(1, true, "a")
	base := storagemodels.Document{"_id": "a", "_timestamp": 1, "int_arg": 1}

	results := map[string]*record.Result{
		"get":          s.Get(ctx, schema, "Widget", storagemodels.NewQuery()),
		"putObject":    s.PutObject(ctx, schema, w),
		"put":          s.Put(ctx, schema, "Widget", base),
		"updateObject": s.UpdateObject(ctx, schema, w, storagemodels.NewQuery()),
		"update":       s.Update(ctx, schema, "Widget", base, storagemodels.NewQuery()),
		"remove":       s.Remove(ctx, schema, "Widget", storagemodels.NewQuery()),
	}
	for name, res := range results {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, record.CodeKO, res.Code())
			assert.True(t, errors.IsConnection(res.Err()))
		})
	}

	for _, op := range []errors.Operation{errors.OpGet, errors.OpPut, errors.OpUpdate, errors.OpRemove} {
		assert.Zero(t, backend.Calls(op), "backend must not be called for %s", op)
	}
}

func TestConnectionLossDetection(t *testing.T) {
	logs := &syncBuffer{}
	s, backend := newTestStore(t, WithLogger(zerolog.New(logs)))
	putWidget(t, s, testmodels.NewWidget(1, true, "a"))

	backend.FailWith(errors.NewConnectionError("memory://", nil))
	res := s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
	assert.True(t, errors.IsConnection(res.Err()))
	assert.False(t, s.IsConnected())

	calls := backend.Calls(errors.OpGet)
	res = s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
	assert.True(t, errors.IsConnection(res.Err()))
	assert.Equal(t, calls, backend.Calls(errors.OpGet), "later calls short-circuit")

	assert.Equal(t, 1, strings.Count(logs.String(), `"transition"`))
}

// barrierStore makes every Get wait until all expected callers arrived and
// then fail with a connection error.
type barrierStore struct {
	*memory.Store
	arrived sync.WaitGroup
}

func (b *barrierStore) Get(_ context.Context, name string, _ storagemodels.Query) ([]storagemodels.Document, error) {
	b.arrived.Done()
	b.arrived.Wait()
	return nil, errors.NewStorageError(errors.OpGet, name, errors.NewConnectionError("memory://", nil))
}

func TestIdempotentDisconnectDetection(t *testing.T) {
	const callers = 2
	logs := &syncBuffer{}
	backend := &barrierStore{Store: memory.New()}
	backend.arrived.Add(callers)
	set := metrics.NewSet()
	s := New(backend, WithLogger(zerolog.New(logs)), WithMetricsSet(set))

	var wg sync.WaitGroup
	results := make([]*record.Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Get(context.Background(), schema, "Widget", storagemodels.NewQuery())
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.True(t, errors.IsConnection(res.Err()))
	}
	assert.False(t, s.IsConnected())
	assert.Equal(t, 1, strings.Count(logs.String(), `"transition"`))

	var out bytes.Buffer
	set.WritePrometheus(&out)
	assert.Contains(t, out.String(), "objectstore_connection_lost_total 1")
	assert.Contains(t, out.String(), "objectstore_connected 0")
}

type panickingStore struct {
	*memory.Store
}

func (p *panickingStore) Remove(context.Context, string, storagemodels.Query) ([]storagemodels.Document, error) {
	panic("driver bug")
}

func TestOperationsNeverPanic(t *testing.T) {
	s := New(&panickingStore{Store: memory.New()})

	var res *record.Result
	assert.NotPanics(t, func() {
		res = s.Remove(context.Background(), schema, "Widget", storagemodels.NewQuery())
	})
	assert.Equal(t, record.CodeKO, res.Code())
	assert.True(t, stderrors.Is(res.Err(), errors.ErrRemove))
	assert.True(t, s.IsConnected())
}

func TestUnionSchema(t *testing.T) {
	s, backend := newTestStore(t, WithUnionSchema())
	ctx := context.Background()

	w := putWidget(t, s, testmodels.NewWidget(1, true, "a"))
	res := s.PutObject(ctx, schema, &testmodels.Gadget{IntArg: 1, Weight: 2.5})
	require.True(t, res.OK(), res.Message())

	assert.Equal(t, []string{schema}, backend.Partitions())
	assert.Equal(t, 2, backend.Count(schema))

	widgets, err := record.Reconstruct[*testmodels.Widget](s.Get(ctx, schema, "Widget", storagemodels.NewQuery(
		storagemodels.Where("int_arg", storagemodels.OpEq, 1),
	)))
	require.NoError(t, err, "discriminator must be dropped and other types filtered")
	require.Len(t, widgets, 1)
	assert.Equal(t, w.ID, widgets[0].ID)

	counts, err := s.Remove(ctx, schema, "Gadget", storagemodels.NewQuery()).Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.DeletedCount)
	assert.Equal(t, 1, backend.Count(schema))
}

func TestOperationMetrics(t *testing.T) {
	set := metrics.NewSet()
	s, _ := newTestStore(t, WithMetricsSet(set))
	putWidget(t, s, testmodels.NewWidget(1, true, "a"))
	s.Get(context.Background(), schema, "Nothing", storagemodels.NewQuery())

	var out bytes.Buffer
	set.WritePrometheus(&out)
	assert.Contains(t, out.String(), `objectstore_operations_total{op="put",code="OK"} 1`)
	assert.Contains(t, out.String(), `objectstore_operations_total{op="get",code="KO"} 1`)
	assert.Contains(t, out.String(), "objectstore_connected 1")
	assert.Same(t, set, s.Metrics())
}

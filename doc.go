/*
Package objectstore provides a backend-agnostic persistence layer for typed records.

Records are Go structs embedding record.Base. The ObjectStore stores them in
partitions named "<schema>_<TypeName>" on a backend (MongoDB, DynamoDB or
memory) and returns every outcome as a record.Result with code OK or KO:
operations never panic or return bare errors.

Key Features:
  - Condition algebra (=, !=, <, <=, >, >=, in, not in) AND-joined, plus an
    optional backend-native filter
  - Strict reconstruction: stored field sets must match the record type
  - Connection tracking: the first operation to see a connection failure marks
    the backend disconnected, later calls short-circuit with a ConnectionError,
    and the supervisor package reconnects in the background
  - Union-schema mode storing every type of a schema in one partition
  - Operation metrics in a VictoriaMetrics set

Basic Usage:

	factory := objectstore.NewFactory()
	backend, err := factory.Resolve(ctx, "mongodb", "mongodb://localhost:27017/app")
	if err != nil {
	    return err
	}
	store := objectstore.New(backend, objectstore.WithLogger(log))

	res := store.PutObject(ctx, "TEST", &Widget{IntArg: 5, BoolArg: true, StrArg: "w"})
	widgets, err := record.Reconstruct[*Widget](res)

	res = store.Get(ctx, "TEST", "Widget", storagemodels.NewQuery(
	    storagemodels.Where("int_arg", storagemodels.OpGt, 3),
	))

Typed access goes through a Collection:

	widgets := objectstore.NewCollection[*Widget](store, "TEST")
	found, err := widgets.Get(ctx, storagemodels.NewQuery())
*/
package objectstore

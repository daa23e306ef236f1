/*
Package storagemodels defines the data structures shared by the orchestrator and
every backend adapter.

Key Types:

Document:
A schemaless stored record keyed by field name. Reserved fields are "_id",
"_timestamp", "_obj_name" and the mutation counters.

Condition and Query:
A request carries AND-joined conditions plus an optional native filter that is
only applied when UseNative is set:

	q := storagemodels.NewQuery(
	    storagemodels.Where("int_arg", storagemodels.OpEq, 5),
	    storagemodels.Where(storagemodels.IDField, storagemodels.OpIn, []string{"a", "b"}),
	).WithNative(`{"str_arg": {"$regex": "^x"}}`)

Operators: =, !=, <, <=, >, >=, in, not in.
*/
package storagemodels

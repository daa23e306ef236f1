/*
Package record defines the record base type and the outcome envelope of objectstore.

Records:
Domain objects embed Base and are used through pointers. Their json tags name
the stored fields:

	type Widget struct {
	    record.Base
	    IntArg  int    `json:"int_arg"`
	    BoolArg bool   `json:"bool_arg"`
	    StrArg  string `json:"str_arg"`
	}

A type that does not embed Base cannot be passed where a Record is expected.
Fields of a record must not use omitempty: a stored document has to carry every
declared field to be reconstructed.

Results:
Every orchestrator operation returns a *Result with code OK or KO. Typed
records are rebuilt from an OK result with Reconstruct:

	res := store.Get(ctx, "TEST", "Widget", storagemodels.NewQuery())
	widgets, err := record.Reconstruct[*Widget](res)

Reconstruct fails with a KOResultError on a KO result and with a
DistinctAttributesError when a document's fields differ from the type's.
*/
package record

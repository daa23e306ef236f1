/*
Package errors provides the error taxonomy of the objectstore library.

Every failure has a sentinel error and a typed error. Typed errors implement
Is() against their sentinel, and the ones that carry a cause implement Unwrap(),
so a check walks through wrappers:

	var (
	    ErrConnection         = errors.New("could not connect to database")
	    ErrGet                = errors.New("error getting data")
	    ErrPut                = errors.New("error storing data")
	    ErrUpdate             = errors.New("error updating data")
	    ErrRemove             = errors.New("error removing data")
	    ErrSchema             = errors.New("error accessing non-existent schema")
	    ErrCriteria           = errors.New("error in action criteria")
	    ...
	)

Backend adapters return a StorageError whose Op selects the operation kind
(GetError, PutError, UpdateError, RemoveError) and whose cause keeps the
specific reason:

	err := errors.NewStorageError(errors.OpGet, "TEST_Widget", errors.NewSchemaError("TEST_Widget"))
	errors.Is(err, errors.ErrGet)    // true
	errors.IsSchema(err)             // true

The orchestrator converts every such error into a KO result. Reconstruction
errors (DistinctAttributesError, KOResultError) are returned to the caller
directly.
*/
package errors

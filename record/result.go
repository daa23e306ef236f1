/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// Code is the outcome of an operation.
type Code string

const (
	CodeOK Code = "OK"
	CodeKO Code = "KO"
)

// Result is the outcome envelope every orchestrator operation returns.
// It is built once by NewOK or NewKO and never changes afterwards.
type Result struct {
	code    Code
	op      errors.Operation
	subject string
	payload []byte
	count   int
	message string
	err     error
}

// NewOK wraps the documents an operation returned.
func NewOK(op errors.Operation, subject string, docs []storagemodels.Document) *Result {
	if docs == nil {
		docs = []storagemodels.Document{}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return NewKO(op, subject, fmt.Errorf("encoding %s result: %w", op, err))
	}
	return &Result{
		code:    CodeOK,
		op:      op,
		subject: subject,
		payload: payload,
		count:   len(docs),
		message: fmt.Sprintf("%s %s: %d document(s)", op, subject, len(docs)),
	}
}

// NewKO wraps the error an operation failed with.
func NewKO(op errors.Operation, subject string, err error) *Result {
	msg := fmt.Sprintf("%s %s failed", op, subject)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Result{
		code:    CodeKO,
		op:      op,
		subject: subject,
		payload: []byte("[]"),
		message: msg,
		err:     err,
	}
}

// Code returns OK or KO.
func (r *Result) Code() Code { return r.code }

// OK reports whether the operation succeeded.
func (r *Result) OK() bool { return r.code == CodeOK }

// Operation returns the operation that produced the result.
func (r *Result) Operation() errors.Operation { return r.op }

// SubjectType returns the record type name the result concerns.
func (r *Result) SubjectType() string { return r.subject }

// Message returns a human readable summary.
func (r *Result) Message() string { return r.message }

// Err returns the causing error of a KO result, nil otherwise.
func (r *Result) Err() error { return r.err }

// Len returns the number of documents in the payload.
func (r *Result) Len() int { return r.count }

// Payload returns a copy of the serialized documents (a JSON array).
func (r *Result) Payload() []byte {
	out := make([]byte, len(r.payload))
	copy(out, r.payload)
	return out
}

// Documents parses the payload into generic field-maps.
func (r *Result) Documents() ([]storagemodels.Document, error) {
	if r.code != CodeOK {
		return nil, errors.NewKOResultError(r.subject, r.err)
	}
	var docs []storagemodels.Document
	if err := decodeNumbers(r.payload, &docs); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", r.subject, err)
	}
	return docs, nil
}

// Counts sums the mutation counters of an update or remove result.
func (r *Result) Counts() (Counts, error) {
	var total Counts
	counts, err := Reconstruct[*Counts](r)
	if err != nil {
		return total, err
	}
	for _, c := range counts {
		total.MatchedCount += c.MatchedCount
		total.ModifiedCount += c.ModifiedCount
		total.DeletedCount += c.DeletedCount
	}
	return total, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("%s %s", r.code, r.message)
}

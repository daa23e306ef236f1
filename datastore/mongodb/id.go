/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/objectstore/errors"
)

// idSize is the byte length of a native object id.
const idSize = len(primitive.ObjectID{})

// EncodeID converts an external id into a native object id.
//
// Ids of at most 12 bytes are stored as their UTF-8 bytes left-padded with
// zero bytes; they must be printable text. Longer ids must be the lowercase
// 24-character hex form of an object id that does not decode to text, so that
// DecodeID(EncodeID(id)) == id for every accepted id.
func EncodeID(id string) (primitive.ObjectID, error) {
	var oid primitive.ObjectID

	switch {
	case id == "":
		return oid, errors.NewIDError(id, "empty id")
	case len(id) > idSize:
		parsed, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return oid, errors.NewIDError(id, "ids longer than 12 bytes must be 24 hex characters")
		}
		// The hex form must be the one DecodeID gives back.
		if DecodeID(parsed) != id {
			return oid, errors.NewIDError(id, "hex id is not in canonical form, use "+DecodeID(parsed))
		}
		return parsed, nil
	}

	if !utf8.ValidString(id) {
		return oid, errors.NewIDError(id, "id is not valid UTF-8")
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return oid, errors.NewIDError(id, "id contains non-printable characters")
		}
	}
	copy(oid[idSize-len(id):], id)
	return oid, nil
}

// DecodeID converts a native object id back into its external id.
// Ids that were encoded from text come back as that text; anything else, such
// as server-generated ids, comes back as 24 hex characters. Either form
// encodes back to the same object id.
func DecodeID(oid primitive.ObjectID) string {
	text := bytes.TrimLeft(oid[:], "\x00")
	if len(text) > 0 && utf8.Valid(text) {
		candidate := string(text)
		if enc, err := EncodeID(candidate); err == nil && enc == oid {
			return candidate
		}
	}
	return oid.Hex()
}

// encodeIDValue encodes the value of an identity-field condition.
func encodeIDValue(v any) (any, error) {
	switch tv := v.(type) {
	case string:
		return EncodeID(tv)
	case primitive.ObjectID:
		return tv, nil
	case []string:
		out := make(primitive.A, 0, len(tv))
		for _, id := range tv {
			oid, err := EncodeID(id)
			if err != nil {
				return nil, err
			}
			out = append(out, oid)
		}
		return out, nil
	case []any:
		out := make(primitive.A, 0, len(tv))
		for _, item := range tv {
			oid, err := encodeIDValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, oid)
		}
		return out, nil
	}
	return nil, errors.NewIDError("", "id values must be strings")
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/objectstore/storagemodels"
)

// toDocument converts a decoded BSON document into plain Go values.
func toDocument(raw bson.M) storagemodels.Document {
	doc := make(storagemodels.Document, len(raw))
	for k, v := range raw {
		if k == storagemodels.IDField {
			if oid, ok := v.(primitive.ObjectID); ok {
				doc[k] = DecodeID(oid)
				continue
			}
		}
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch tv := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(tv))
		for _, e := range tv {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(tv))
		for k, inner := range tv {
			out[k] = normalize(inner)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, inner := range tv {
			out[k] = normalize(inner)
		}
		return out
	case primitive.A:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = normalize(inner)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = normalize(inner)
		}
		return out
	case int32:
		return int64(tv)
	case primitive.ObjectID:
		return tv.Hex()
	case primitive.DateTime:
		return tv.Time().UTC()
	case primitive.Decimal128:
		return tv.String()
	case primitive.Binary:
		return tv.Data
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}

// toBSON prepares a stored document for insertion, with its id already encoded.
func toBSON(doc storagemodels.Document, oid primitive.ObjectID) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	out[storagemodels.IDField] = oid
	return out
}

/*
Package mongodb implements the objectstore storage port on MongoDB.

Each partition is a collection of the database named in the connection string
(DefaultDatabase when it names none). A collection is created with a unique
index on _timestamp on the first put; reads, updates and removes on a missing
collection fail with a SchemaError.

Conditions translate through a fixed operator table and are AND-joined:

	=  $eq     !=  $ne     <  $lt     <=  $lte
	>  $gt     >=  $gte    in $in     not in  $nin

A native filter is MongoDB extended JSON and is appended as one more branch:

	q := storagemodels.NewQuery(storagemodels.Where("int_arg", storagemodels.OpGt, 3)).
	    WithNative(`{"str_arg": {"$regex": "^w"}}`)

Identities:
Stored ids are object ids. EncodeID pads ids of up to 12 bytes with leading
zero bytes and parses longer ids as 24 hex characters; DecodeID reverses it and
returns the hex form for ids that did not come from text.

Connection failures reported by the driver (network errors, timeouts, a
disconnected client) surface as a ConnectionError inside the operation error.
*/
package mongodb

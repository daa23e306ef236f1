/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/objectstore/storagemodels"
)

// DataStore is the storage port every backend adapter implements.
// Failures are returned as errors.StorageError values carrying the operation kind.
type DataStore interface {
	// Get returns the documents of a partition matching the query, oldest first.
	Get(ctx context.Context, partition string, q storagemodels.Query) ([]storagemodels.Document, error)

	// Put stores one document, creating the partition when needed, and returns
	// the stored document with its assigned _id and _timestamp.
	Put(ctx context.Context, partition string, doc storagemodels.Document) ([]storagemodels.Document, error)

	// Update sets the fields of doc on every matching document and returns
	// {matched_count, modified_count}.
	Update(ctx context.Context, partition string, doc storagemodels.Document, q storagemodels.Query) ([]storagemodels.Document, error)

	// Remove deletes every matching document and returns {deleted_count}.
	Remove(ctx context.Context, partition string, q storagemodels.Query) ([]storagemodels.Document, error)
}

// Connector is the connection lifecycle shared by the orchestrator and the supervisor.
type Connector interface {
	IsConnected() bool

	// MarkDisconnected flips the connection state to false and reports
	// whether this call made the transition.
	MarkDisconnected() bool

	SetConnected(connected bool)

	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// Ping probes the backend and reports whether it answered.
	Ping(ctx context.Context) bool
}

// Backend is a storage adapter with its connection.
type Backend interface {
	DataStore
	Connector

	// Name returns the factory name of the backend.
	Name() string
}

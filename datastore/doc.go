/*
Package datastore defines the storage port of objectstore and the helpers its adapters share.

The port is split in two interfaces that a Backend combines:

	type DataStore interface {
	    Get(ctx context.Context, partition string, q storagemodels.Query) ([]storagemodels.Document, error)
	    Put(ctx context.Context, partition string, doc storagemodels.Document) ([]storagemodels.Document, error)
	    Update(ctx context.Context, partition string, doc storagemodels.Document, q storagemodels.Query) ([]storagemodels.Document, error)
	    Remove(ctx context.Context, partition string, q storagemodels.Query) ([]storagemodels.Document, error)
	}

	type Connector interface {
	    IsConnected() bool
	    MarkDisconnected() bool
	    SetConnected(connected bool)
	    Connect(ctx context.Context) error
	    Close(ctx context.Context) error
	    Ping(ctx context.Context) bool
	}

Implementations:
  - mongodb: MongoDB adapter, one collection per partition
  - ddb: DynamoDB adapter, one table per partition
  - memory: in-memory adapter with failure injection for testing

Adapters stamp _timestamp with a Clock, validate input with PrepareInsert and
PrepareUpdate, and wrap failures with OpError so connection losses surface as
ConnectionError inside the operation error.
*/
package datastore

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// BackendName is the factory name of the MongoDB backend.
const BackendName = "mongodb"

// DefaultDatabase is used when the connection string names no database.
const DefaultDatabase = "objectstore"

const (
	serverSelectionTimeout = 5 * time.Second
	pingTimeout            = 2 * time.Second

	// codeNamespaceExists is returned when a collection is created twice.
	codeNamespaceExists = 48

	timestampIndex = "_timestamp_unique"
)

// Store is the MongoDB implementation of datastore.Backend. Each partition
// is a collection of the database named in the connection string.
type Store struct {
	datastore.ConnState

	uri      string
	endpoint string
	database string
	opts     datastore.Options

	mu     sync.RWMutex
	client *mongo.Client

	// known caches partitions that exist with their timestamp index.
	known *xsync.MapOf[string, struct{}]
}

// New connects to the MongoDB deployment at uri and fails fast with a
// ConnectionError when it cannot be reached after the configured retries.
func New(ctx context.Context, uri string, opts ...datastore.Option) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.NewConnectionError("mongodb", fmt.Errorf("invalid connection string: %w", err))
	}

	database := cs.Database
	if database == "" {
		database = DefaultDatabase
	}

	s := &Store{
		uri:      uri,
		endpoint: cs.Scheme + "://" + strings.Join(cs.Hosts, ","),
		database: database,
		opts:     datastore.ApplyOptions(opts...),
		known:    xsync.NewMapOf[string, struct{}](),
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	s.SetConnected(true)
	return s, nil
}

// Open is the factory entry point.
func Open(ctx context.Context, endpoint string, opts ...datastore.Option) (datastore.Backend, error) {
	return New(ctx, endpoint, opts...)
}

// Name returns the factory name.
func (s *Store) Name() string { return BackendName }

// Database returns the database name in use.
func (s *Store) Database() string { return s.database }

// Connect opens a new client, retrying up to MaxRetries times, and verifies it
// with a ping. It does not change the connection state.
func (s *Store) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(s.uri).
			SetServerSelectionTimeout(serverSelectionTimeout))
		if err == nil {
			err = client.Ping(ctx, readpref.Primary())
			if err == nil {
				s.swapClient(ctx, client)
				s.opts.Logger.Info().Str("endpoint", s.endpoint).Int("attempt", attempt).Msg("connected to mongodb")
				return nil
			}
			_ = client.Disconnect(ctx)
		}

		lastErr = err
		s.opts.Logger.Warn().Err(err).Str("endpoint", s.endpoint).Int("attempt", attempt).Msg("mongodb connection attempt failed")

		if attempt < s.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return errors.NewConnectionError(s.endpoint, ctx.Err())
			case <-time.After(s.opts.RetryBackoff * time.Duration(attempt)):
			}
		}
	}
	return errors.NewConnectionError(s.endpoint, lastErr)
}

func (s *Store) swapClient(ctx context.Context, client *mongo.Client) {
	s.mu.Lock()
	old := s.client
	s.client = client
	s.mu.Unlock()

	if old != nil {
		_ = old.Disconnect(ctx)
	}
}

// Close disconnects the client. Operations fail with a ConnectionError until
// the next Connect.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Ping reports whether the deployment answers.
func (s *Store) Ping(ctx context.Context) bool {
	client := s.currentClient()
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx, readpref.Primary()) == nil
}

func (s *Store) currentClient() *mongo.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Store) db() (*mongo.Database, error) {
	client := s.currentClient()
	if client == nil {
		return nil, errors.NewConnectionError(s.endpoint, mongo.ErrClientDisconnected)
	}
	return client.Database(s.database), nil
}

// Get returns the matching documents of a partition sorted by _timestamp.
func (s *Store) Get(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	coll, cached, err := s.existing(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, errors.OpGet, name, err)
	}
	filter, err := BuildFilter(q)
	if err != nil {
		return nil, s.fail(ctx, errors.OpGet, name, err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: storagemodels.TimestampField, Value: 1}}).
		SetBatchSize(s.opts.PageSize)
	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, s.fail(ctx, errors.OpGet, name, err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, s.fail(ctx, errors.OpGet, name, err)
	}
	if len(raw) == 0 && cached {
		if err := s.recheck(ctx, name); err != nil {
			return nil, s.fail(ctx, errors.OpGet, name, err)
		}
	}

	docs := make([]storagemodels.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, toDocument(r))
	}
	return docs, nil
}

// Put stores a document, creating the partition and its unique timestamp
// index on first use.
func (s *Store) Put(ctx context.Context, name string, doc storagemodels.Document) ([]storagemodels.Document, error) {
	stored, err := datastore.PrepareInsert(doc, s.opts.Clock)
	if err != nil {
		return nil, s.fail(ctx, errors.OpPut, name, err)
	}

	var oid primitive.ObjectID
	if id := stored.ID(); id == "" {
		oid = primitive.NewObjectID()
	} else if oid, err = EncodeID(id); err != nil {
		return nil, s.fail(ctx, errors.OpPut, name, err)
	}

	coll, err := s.ensure(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, errors.OpPut, name, err)
	}
	if _, err := coll.InsertOne(ctx, toBSON(stored, oid)); err != nil {
		return nil, s.fail(ctx, errors.OpPut, name, err)
	}

	stored[storagemodels.IDField] = DecodeID(oid)
	s.opts.Logger.Debug().Str("partition", name).Str("id", stored.ID()).Msg("stored document")
	return []storagemodels.Document{stored}, nil
}

// Update sets the fields of doc on every matching document.
func (s *Store) Update(ctx context.Context, name string, doc storagemodels.Document, q storagemodels.Query) ([]storagemodels.Document, error) {
	fields, err := datastore.PrepareUpdate(doc)
	if err != nil {
		return nil, s.fail(ctx, errors.OpUpdate, name, err)
	}
	coll, cached, err := s.existing(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, errors.OpUpdate, name, err)
	}
	filter, err := BuildFilter(q)
	if err != nil {
		return nil, s.fail(ctx, errors.OpUpdate, name, err)
	}

	res, err := coll.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.M(fields)}})
	if err != nil {
		return nil, s.fail(ctx, errors.OpUpdate, name, err)
	}
	if res.MatchedCount == 0 && cached {
		if err := s.recheck(ctx, name); err != nil {
			return nil, s.fail(ctx, errors.OpUpdate, name, err)
		}
	}
	return datastore.UpdateCounts(res.MatchedCount, res.ModifiedCount), nil
}

// Remove deletes every matching document.
func (s *Store) Remove(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	coll, cached, err := s.existing(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, errors.OpRemove, name, err)
	}
	filter, err := BuildFilter(q)
	if err != nil {
		return nil, s.fail(ctx, errors.OpRemove, name, err)
	}

	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, errors.OpRemove, name, err)
	}
	if res.DeletedCount == 0 && cached {
		if err := s.recheck(ctx, name); err != nil {
			return nil, s.fail(ctx, errors.OpRemove, name, err)
		}
	}
	return datastore.RemoveCounts(res.DeletedCount), nil
}

// existing returns the collection of a partition or a SchemaError when it does
// not exist. cached reports that existence came from the partition cache.
func (s *Store) existing(ctx context.Context, name string) (coll *mongo.Collection, cached bool, err error) {
	db, err := s.db()
	if err != nil {
		return nil, false, err
	}
	if _, ok := s.known.Load(name); ok {
		return db.Collection(name), true, nil
	}

	found, err := s.exists(ctx, db, name)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, errors.NewSchemaError(name)
	}
	s.known.Store(name, struct{}{})
	return db.Collection(name), false, nil
}

// recheck confirms a cached partition still exists after an operation matched
// nothing. A partition dropped outside the store is evicted from the cache and
// reported as a SchemaError.
func (s *Store) recheck(ctx context.Context, name string) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	found, err := s.exists(ctx, db, name)
	if err != nil {
		return err
	}
	if !found {
		s.known.Delete(name)
		s.opts.Logger.Info().Str("partition", name).Msg("partition dropped externally")
		return errors.NewSchemaError(name)
	}
	return nil
}

// ensure returns the collection of a partition, creating it when missing.
func (s *Store) ensure(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	if _, ok := s.known.Load(name); ok {
		return db.Collection(name), nil
	}

	found, err := s.exists(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := db.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
			return nil, fmt.Errorf("creating partition: %w", err)
		}
		s.opts.Logger.Info().Str("partition", name).Msg("created partition")
	}

	coll := db.Collection(name)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: storagemodels.TimestampField, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(timestampIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("creating timestamp index: %w", err)
	}

	s.known.Store(name, struct{}{})
	return coll, nil
}

func (s *Store) exists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// fail wraps err for op. Driver network and timeout failures are reported as
// connection losses unless the caller's context ended.
func (s *Store) fail(ctx context.Context, op errors.Operation, name string, err error) error {
	if ctx.Err() != nil {
		return datastore.OpError(op, name, s.endpoint, err, nil)
	}
	if stderrors.Is(err, mongo.ErrClientDisconnected) {
		s.known.Clear()
	}
	return datastore.OpError(op, name, s.endpoint, err, isConnectionLoss)
}

func isConnectionLoss(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		stderrors.Is(err, mongo.ErrClientDisconnected)
}

func isNamespaceExists(err error) bool {
	var se mongo.ServerError
	return stderrors.As(err, &se) && se.HasErrorCode(codeNamespaceExists)
}

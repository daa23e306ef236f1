/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

// BackendName is the factory name of the DynamoDB backend.
const BackendName = "dynamodb"

const tableActiveTimeout = 2 * time.Minute

// DynamodbDataStore implements datastore.Backend on AWS DynamoDB. Each
// partition is a table keyed by _id.
type DynamodbDataStore struct {
	datastore.ConnState

	endpoint Endpoint
	opts     datastore.Options

	mu     sync.RWMutex
	client *sdk.Client

	known *xsync.MapOf[string, struct{}]
}

// NewDynamoDBClient initializes a DynamoDB client for an endpoint.
func NewDynamoDBClient(ctx context.Context, ep Endpoint) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(ep.Region)}
	if ep.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ep.AccessKey, ep.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if ep.URL != "" {
			o.BaseEndpoint = aws.String(ep.URL)
		}
	}), nil
}

// NewDynamodbDataStore connects to the endpoint and fails fast with a
// ConnectionError when DynamoDB does not answer.
func NewDynamodbDataStore(ctx context.Context, endpoint string, opts ...datastore.Option) (*DynamodbDataStore, error) {
	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, errors.NewConnectionError(BackendName, err)
	}

	d := &DynamodbDataStore{
		endpoint: ep,
		opts:     datastore.ApplyOptions(opts...),
		known:    xsync.NewMapOf[string, struct{}](),
	}
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	d.SetConnected(true)
	return d, nil
}

// Open is the factory entry point.
func Open(ctx context.Context, endpoint string, opts ...datastore.Option) (datastore.Backend, error) {
	return NewDynamodbDataStore(ctx, endpoint, opts...)
}

// Name returns the factory name.
func (d *DynamodbDataStore) Name() string { return BackendName }

// Connect builds a new client and verifies it, retrying up to MaxRetries times.
func (d *DynamodbDataStore) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= d.opts.MaxRetries; attempt++ {
		client, err := NewDynamoDBClient(ctx, d.endpoint)
		if err == nil {
			_, err = client.ListTables(ctx, &sdk.ListTablesInput{Limit: aws.Int32(1)})
			if err == nil {
				d.mu.Lock()
				d.client = client
				d.mu.Unlock()
				d.opts.Logger.Info().Str("endpoint", d.endpoint.String()).Int("attempt", attempt).Msg("connected to dynamodb")
				return nil
			}
		}

		lastErr = err
		d.opts.Logger.Warn().Err(err).Str("endpoint", d.endpoint.String()).Int("attempt", attempt).Msg("dynamodb connection attempt failed")

		if attempt < d.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return errors.NewConnectionError(d.endpoint.String(), ctx.Err())
			case <-time.After(d.opts.RetryBackoff * time.Duration(attempt)):
			}
		}
	}
	return errors.NewConnectionError(d.endpoint.String(), lastErr)
}

// Close drops the client. The SDK keeps no connection to release.
func (d *DynamodbDataStore) Close(_ context.Context) error {
	d.mu.Lock()
	d.client = nil
	d.mu.Unlock()
	return nil
}

// Ping reports whether DynamoDB answers.
func (d *DynamodbDataStore) Ping(ctx context.Context) bool {
	client, err := d.currentClient()
	if err != nil {
		return false
	}
	_, err = client.ListTables(ctx, &sdk.ListTablesInput{Limit: aws.Int32(1)})
	return err == nil
}

func (d *DynamodbDataStore) currentClient() (*sdk.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, errors.NewConnectionError(d.endpoint.String(), fmt.Errorf("client closed"))
	}
	return d.client, nil
}

// Get scans a partition and returns the matching items sorted by _timestamp.
func (d *DynamodbDataStore) Get(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	f, err := buildFilter(q)
	if err != nil {
		return nil, d.fail(ctx, errors.OpGet, name, err)
	}
	items, err := d.scan(ctx, name, f, nil)
	if err != nil {
		return nil, d.fail(ctx, errors.OpGet, name, err)
	}

	docs := make([]storagemodels.Document, 0, len(items))
	for _, item := range items {
		doc, err := itemToDocument(item)
		if err != nil {
			return nil, d.fail(ctx, errors.OpGet, name, err)
		}
		docs = append(docs, doc)
	}
	sortByTimestamp(docs)
	return docs, nil
}

// Put stores an item, creating the partition table on first use.
func (d *DynamodbDataStore) Put(ctx context.Context, name string, doc storagemodels.Document) ([]storagemodels.Document, error) {
	stored, err := datastore.PrepareInsert(doc, d.opts.Clock)
	if err != nil {
		return nil, d.fail(ctx, errors.OpPut, name, err)
	}
	if stored.ID() == "" {
		stored[storagemodels.IDField] = uuid.NewString()
	}

	client, err := d.currentClient()
	if err != nil {
		return nil, d.fail(ctx, errors.OpPut, name, err)
	}
	if err := d.ensureTable(ctx, client, name); err != nil {
		return nil, d.fail(ctx, errors.OpPut, name, err)
	}

	av, err := attributevalue.MarshalMap(map[string]any(stored))
	if err != nil {
		return nil, d.fail(ctx, errors.OpPut, name, fmt.Errorf("failed to marshal document: %w", err))
	}

	_, err = client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(name),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": storagemodels.IDField},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			err = errors.NewDataError(storagemodels.IDField, "duplicate id "+stored.ID())
		}
		return nil, d.fail(ctx, errors.OpPut, name, err)
	}

	d.opts.Logger.Debug().Str("partition", name).Str("id", stored.ID()).Msg("stored document")
	return []storagemodels.Document{stored}, nil
}

// Update applies the fields of doc to every matching item, one item at a time.
func (d *DynamodbDataStore) Update(ctx context.Context, name string, doc storagemodels.Document, q storagemodels.Query) ([]storagemodels.Document, error) {
	fields, err := datastore.PrepareUpdate(doc)
	if err != nil {
		return nil, d.fail(ctx, errors.OpUpdate, name, err)
	}
	f, err := buildFilter(q)
	if err != nil {
		return nil, d.fail(ctx, errors.OpUpdate, name, err)
	}
	items, err := d.scan(ctx, name, f, nil)
	if err != nil {
		return nil, d.fail(ctx, errors.OpUpdate, name, err)
	}

	updateExpr, expr, err := buildUpdateExpression(fields)
	if err != nil {
		return nil, d.fail(ctx, errors.OpUpdate, name, err)
	}
	condition := fmt.Sprintf("attribute_exists(%s)", expr.name(storagemodels.IDField))

	client, err := d.currentClient()
	if err != nil {
		return nil, d.fail(ctx, errors.OpUpdate, name, err)
	}

	var matched, modified int64
	for _, item := range items {
		matched++
		if unchanged(item, expr) {
			continue
		}
		_, err := client.UpdateItem(ctx, &sdk.UpdateItemInput{
			TableName:                 aws.String(name),
			Key:                       map[string]types.AttributeValue{storagemodels.IDField: item[storagemodels.IDField]},
			UpdateExpression:          aws.String(updateExpr),
			ConditionExpression:       aws.String(condition),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			if stderrors.As(err, &cfe) {
				// removed since the scan
				matched--
				continue
			}
			return nil, d.fail(ctx, errors.OpUpdate, name, err)
		}
		modified++
	}
	return datastore.UpdateCounts(matched, modified), nil
}

// Remove deletes every matching item, one item at a time.
func (d *DynamodbDataStore) Remove(ctx context.Context, name string, q storagemodels.Query) ([]storagemodels.Document, error) {
	f, err := buildFilter(q)
	if err != nil {
		return nil, d.fail(ctx, errors.OpRemove, name, err)
	}
	items, err := d.scan(ctx, name, f, aws.String(f.name(storagemodels.IDField)))
	if err != nil {
		return nil, d.fail(ctx, errors.OpRemove, name, err)
	}

	client, err := d.currentClient()
	if err != nil {
		return nil, d.fail(ctx, errors.OpRemove, name, err)
	}

	var deleted int64
	for _, item := range items {
		_, err := client.DeleteItem(ctx, &sdk.DeleteItemInput{
			TableName: aws.String(name),
			Key:       map[string]types.AttributeValue{storagemodels.IDField: item[storagemodels.IDField]},
		})
		if err != nil {
			return nil, d.fail(ctx, errors.OpRemove, name, err)
		}
		deleted++
	}
	return datastore.RemoveCounts(deleted), nil
}

// scan reads every item of a table matching the filter.
func (d *DynamodbDataStore) scan(ctx context.Context, name string, f *filter, projection *string) ([]map[string]types.AttributeValue, error) {
	client, err := d.currentClient()
	if err != nil {
		return nil, err
	}

	paginator := sdk.NewScanPaginator(client, &sdk.ScanInput{
		TableName:                 aws.String(name),
		FilterExpression:          f.Expression,
		ProjectionExpression:      projection,
		ExpressionAttributeNames:  f.Names(),
		ExpressionAttributeValues: f.Values(),
		Limit:                     aws.Int32(d.opts.PageSize),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		var page *sdk.ScanOutput
		err := d.withRetry(ctx, func() error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			var rnf *types.ResourceNotFoundException
			if stderrors.As(err, &rnf) {
				d.known.Delete(name)
				return nil, errors.NewSchemaError(name)
			}
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// ensureTable creates the table of a partition when it does not exist and
// waits until it is active.
func (d *DynamodbDataStore) ensureTable(ctx context.Context, client *sdk.Client, name string) error {
	if _, ok := d.known.Load(name); ok {
		return nil
	}

	_, err := client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(name)})
	if err == nil {
		d.known.Store(name, struct{}{})
		return nil
	}
	var rnf *types.ResourceNotFoundException
	if !stderrors.As(err, &rnf) {
		return err
	}

	_, err = client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{{
			AttributeName: aws.String(storagemodels.IDField),
			AttributeType: types.ScalarAttributeTypeS,
		}},
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(storagemodels.IDField),
			KeyType:       types.KeyTypeHash,
		}},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !stderrors.As(err, &inUse) {
		return fmt.Errorf("creating partition: %w", err)
	}

	waiter := sdk.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(name)}, tableActiveTimeout); err != nil {
		return fmt.Errorf("waiting for partition: %w", err)
	}
	d.opts.Logger.Info().Str("partition", name).Msg("created partition")
	d.known.Store(name, struct{}{})
	return nil
}

// withRetry runs fn with configurable retry logic for throttling and
// transient server errors.
func (d *DynamodbDataStore) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return err
		}

		if attempt < d.opts.MaxRetries {
			backoff := time.Duration(attempt+1) * d.opts.RetryBackoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", d.opts.MaxRetries, lastErr)
}

func (d *DynamodbDataStore) fail(ctx context.Context, op errors.Operation, name string, err error) error {
	if ctx.Err() != nil {
		return datastore.OpError(op, name, d.endpoint.String(), err, nil)
	}
	return datastore.OpError(op, name, d.endpoint.String(), err, isConnectionLoss)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var pte *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	var ise *types.InternalServerError
	if stderrors.As(err, &pte) || stderrors.As(err, &rle) || stderrors.As(err, &ise) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// isConnectionLoss reports failures to reach DynamoDB at all.
func isConnectionLoss(err error) bool {
	var sendErr *smithyhttp.RequestSendError
	return stderrors.As(err, &sendErr)
}

// unchanged reports whether an item already holds every value of an update.
func unchanged(item map[string]types.AttributeValue, expr *expression) bool {
	for namePH, field := range expr.names {
		if field == storagemodels.IDField {
			continue
		}
		valuePH := ":v" + namePH[len("#n"):]
		want, ok := expr.values[valuePH]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(item[field], want) {
			return false
		}
	}
	return true
}

// itemToDocument converts an item into plain Go values, keeping integers exact.
func itemToDocument(item map[string]types.AttributeValue) (storagemodels.Document, error) {
	var raw map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &raw, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	doc := make(storagemodels.Document, len(raw))
	for k, v := range raw {
		doc[k] = normalize(v)
	}
	return doc, nil
}

func normalize(v any) any {
	switch tv := v.(type) {
	case attributevalue.Number:
		if n, err := tv.Int64(); err == nil {
			return n
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	case map[string]any:
		for k, inner := range tv {
			tv[k] = normalize(inner)
		}
		return tv
	case []any:
		for i, inner := range tv {
			tv[i] = normalize(inner)
		}
		return tv
	}
	return v
}

func sortByTimestamp(docs []storagemodels.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		ti, _ := docs[i][storagemodels.TimestampField].(int64)
		tj, _ := docs[j][storagemodels.TimestampField].(int64)
		return ti < tj
	})
}

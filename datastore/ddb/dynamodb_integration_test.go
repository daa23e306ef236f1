//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/storagemodels"
)

func getTestStore(t *testing.T) *DynamodbDataStore {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	endpoint := os.Getenv("DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("DYNAMODB_ENDPOINT not set")
	}

	store, err := NewDynamodbDataStore(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return store
}

func TestDynamoDBRoundTrip(t *testing.T) {
	store := getTestStore(t)
	ctx := context.Background()
	part := "IT_" + time.Now().Format("20060102150405") + "_Widget"

	if _, err := store.Get(ctx, part, storagemodels.NewQuery()); !errors.IsSchema(err) {
		t.Fatalf("Expected SchemaError before the first put, got %v", err)
	}

	stored, err := store.Put(ctx, part, storagemodels.Document{"_id": "", "_timestamp": int64(0), "int_arg": 1})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	id := stored[0].ID()

	docs, err := store.Get(ctx, part, storagemodels.NewQuery(storagemodels.Where("_id", storagemodels.OpEq, id)))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(docs) != 1 || docs[0]["int_arg"] != int64(1) {
		t.Fatalf("Unexpected documents %v", docs)
	}

	res, err := store.Remove(ctx, part, storagemodels.NewQuery())
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if res[0][storagemodels.DeletedCountField] != int64(1) {
		t.Errorf("Expected one deleted item, got %v", res[0])
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/objectstore"
	"github.com/suparena/objectstore/datastore/memory"
	"github.com/suparena/objectstore/storagemodels"
)

func TestMux(t *testing.T) {
	backend := memory.New()
	store := objectstore.New(backend)
	store.Get(context.Background(), "TEST", "Widget", storagemodels.NewQuery())

	body := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		newMux(store).ServeHTTP(rec, req)
		return rec.Code, rec.Body.String()
	}

	code, text := body("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", text)

	_, text = body("/metrics")
	assert.Contains(t, text, `objectstore_operations_total{op="get",code="KO"} 1`)
	assert.Contains(t, text, "objectstore_connected 1")

	backend.MarkDisconnected()
	code, text = body("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "disconnected\n", text)
}

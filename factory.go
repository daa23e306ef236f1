/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/datastore/ddb"
	"github.com/suparena/objectstore/datastore/memory"
	"github.com/suparena/objectstore/datastore/mongodb"
	"github.com/suparena/objectstore/errors"
)

// Opener connects a backend to an endpoint.
type Opener func(ctx context.Context, endpoint string, opts ...datastore.Option) (datastore.Backend, error)

// Factory resolves the backend of a process by name. The first successful
// resolution wins; later calls return the same backend. It is safe for
// concurrent use.
type Factory struct {
	mu      sync.Mutex
	openers map[string]Opener
	backend datastore.Backend
}

// NewFactory creates a Factory with the mongodb, dynamodb and memory backends registered.
func NewFactory() *Factory {
	f := &Factory{
		openers: make(map[string]Opener),
	}
	f.openers[mongodb.BackendName] = mongodb.Open
	f.openers[ddb.BackendName] = ddb.Open
	f.openers[memory.BackendName] = memory.Open
	return f
}

// Register adds a backend under name.
func (f *Factory) Register(name string, open Opener) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.openers[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	f.openers[name] = open
	return nil
}

// Names returns the registered backend names.
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.openers))
	for name := range f.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve opens the backend registered under name on endpoint. Once a
// backend has been resolved, Resolve returns it whatever the arguments.
// Unknown names fail with a ConfigurationError.
func (f *Factory) Resolve(ctx context.Context, name, endpoint string, opts ...datastore.Option) (datastore.Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.backend != nil {
		return f.backend, nil
	}

	open, ok := f.openers[name]
	if !ok {
		return nil, errors.NewConfigurationError(name)
	}

	backend, err := open(ctx, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	f.backend = backend
	return backend, nil
}

// Backend returns the resolved backend, nil before the first successful Resolve.
func (f *Factory) Backend() datastore.Backend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backend
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/suparena/objectstore/errors"
)

// ConnState is the lock-free connection flag adapters embed.
type ConnState struct {
	connected atomic.Bool
}

// IsConnected reports the last known connection state.
func (s *ConnState) IsConnected() bool {
	return s.connected.Load()
}

// MarkDisconnected flips the state from connected to disconnected.
// Only the caller that made the transition gets true.
func (s *ConnState) MarkDisconnected() bool {
	return s.connected.CompareAndSwap(true, false)
}

// SetConnected stores the connection state.
func (s *ConnState) SetConnected(connected bool) {
	s.connected.Store(connected)
}

// IsNetworkFailure reports failures any backend treats as a lost connection.
func IsNetworkFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsConnection(err) {
		return true
	}
	// The caller's own deadline is not a connection loss.
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	return stderrors.Is(err, io.ErrUnexpectedEOF)
}

// OpError wraps a backend failure in the error kind of op. Failures the
// classifier recognises as connection losses become a ConnectionError first,
// so the orchestrator can tell them apart.
func OpError(op errors.Operation, partition, endpoint string, err error, isConnLoss func(error) bool) error {
	if err == nil {
		return nil
	}
	var se *errors.StorageError
	if stderrors.As(err, &se) {
		return err
	}
	if !errors.IsConnection(err) && (IsNetworkFailure(err) || (isConnLoss != nil && isConnLoss(err))) {
		err = errors.NewConnectionError(endpoint, err)
	}
	return errors.NewStorageError(op, partition, err)
}

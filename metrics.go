/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/errors"
	"github.com/suparena/objectstore/record"
)

const (
	metricOperations = "objectstore_operations_total"
	metricDuration   = "objectstore_operation_duration_seconds"
	metricLost       = "objectstore_connection_lost_total"
	metricConnected  = "objectstore_connected"
)

type storeMetrics struct {
	set  *metrics.Set
	lost *metrics.Counter
}

func newStoreMetrics(set *metrics.Set) *storeMetrics {
	return &storeMetrics{
		set:  set,
		lost: set.GetOrCreateCounter(metricLost),
	}
}

func (m *storeMetrics) trackConnection(conn datastore.Connector) {
	m.set.GetOrCreateGauge(metricConnected, func() float64 {
		if conn.IsConnected() {
			return 1
		}
		return 0
	})
}

func (m *storeMetrics) observe(op errors.Operation, code record.Code, start time.Time) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`%s{op=%q,code=%q}`, metricOperations, op, code)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`%s{op=%q}`, metricDuration, op)).UpdateDuration(start)
}

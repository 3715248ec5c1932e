// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package jsonrpc2

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/go-a2a/a2a-engine/internal/jsonrpc2"

var (
	startedCounter  metric.Int64Counter
	finishedCounter metric.Int64Counter
	latency         metric.Float64Histogram
)

var metricOnce sync.Once

func newMetrics(m metric.Meter) {
	metricOnce.Do(func() {
		var err error

		startedCounter, err = m.Int64Counter("a2a.rpc.started",
			metric.WithDescription("Count of started RPCs"),
		)
		if err != nil {
			otel.Handle(err)
			startedCounter = noop.Int64Counter{}
		}

		finishedCounter, err = m.Int64Counter("a2a.rpc.finished",
			metric.WithDescription("Count of finished RPCs by status code"),
		)
		if err != nil {
			otel.Handle(err)
			finishedCounter = noop.Int64Counter{}
		}

		latency, err = m.Float64Histogram("a2a.rpc.latency",
			metric.WithDescription("Latency of RPCs"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			otel.Handle(err)
			latency = noop.Float64Histogram{}
		}
	})
}

// StartCall records the start of an RPC and returns a function that records
// its completion with the resulting error code (zero on success).
func StartCall(ctx context.Context, method string) (done func(code int64)) {
	newMetrics(otel.Meter(meterName))

	methodAttr := attribute.String("rpc.method", method)
	startedCounter.Add(ctx, 1, metric.WithAttributes(methodAttr))
	start := time.Now()

	return func(code int64) {
		attrs := metric.WithAttributes(methodAttr, attribute.Int64("rpc.jsonrpc.error_code", code))
		finishedCounter.Add(ctx, 1, attrs)
		latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

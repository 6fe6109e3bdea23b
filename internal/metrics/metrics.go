// Copyright 2026 The AllKorrect Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the daemon's prometheus gauges/counters: the
// observability surface SPEC_FULL.md's ambient stack carries even though
// spec.md itself never names a metrics component.
package metrics

import (
	"context"
	"net/http"

	"github.com/allkorrect/allkorrect/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExecVerdicts counts EXEC_REPLY outcomes by wire.ResultType.
	ExecVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "allkorrect",
		Name:      "exec_verdicts_total",
		Help:      "Count of sandboxed executions by verdict.",
	}, []string{"verdict"})

	// Sessions counts accepted client connections.
	Sessions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "allkorrect",
		Name:      "sessions_total",
		Help:      "Count of client connections accepted.",
	})

	// CacheSizeBytes is registered for the cache root's cache-class blob
	// total; nothing in the tree sets it, so it stays at 0.
	CacheSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "allkorrect",
		Name:      "cache_size_bytes",
		Help:      "Total size of cache-class blobs under the cache root.",
	})

	// JanitorSweepsTotal counts completed janitor sweeps.
	JanitorSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "allkorrect",
		Name:      "janitor_sweeps_total",
		Help:      "Count of completed cache janitor sweeps.",
	})
)

// RecordVerdict increments ExecVerdicts for the given result.
func RecordVerdict(r wire.ResultType) {
	ExecVerdicts.WithLabelValues(r.String()).Inc()
}

// Serve runs the prometheus HTTP listener on addr until ctx is cancelled, or
// returns immediately if addr is empty (metrics disabled).
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

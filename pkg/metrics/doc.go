/*
Package metrics provides Prometheus metrics collection and exposition for
siloscript.

The metrics package defines and registers all siloscript metrics using the
Prometheus client library, giving operators visibility into silo lifecycle,
pending questions, run throughput and latency, and store health. Metrics are
exposed via an HTTP endpoint for scraping by Prometheus servers, mounted on
the Control façade alongside the health endpoints.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Silo: open count                                  │          │
	│  │  Channel/Question: open, pending, answered  │          │
	│  │  Run: total, in-flight, duration            │          │
	│  │  Data façade: request count, duration       │          │
	│  │  Store: operation duration, errors          │          │
	│  │  Crypto: queue depth, operation duration    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics (Control façade)          │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates

Collector:
  - Polls a Stats source (satisfied by *machine.Machine) every 15s
  - Updates gauge metrics that aren't naturally event-driven

Observer:
  - Subscribes to a *events.Broker and drives question/run counters and
    RunDuration from the lifecycle events machine.Machine publishes
  - Started once per Machine (see machine.New), stopped via the same
    done channel the Machine closes in Close()
  - Request-scoped counters and histograms (data/control façade traffic,
    store operation duration) are instead updated inline by the
    calling code, since they have no natural event to subscribe to

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Silo Metrics:

siloscript_silos_open:
  - Type: Gauge
  - Description: Number of silos currently held open by in-flight runs

Channel and Question Metrics:

siloscript_channels_open:
  - Type: Gauge
  - Description: Number of control channels currently open

siloscript_questions_pending:
  - Type: Gauge
  - Description: Number of questions awaiting an answer across all channels

siloscript_questions_asked_total:
  - Type: Counter
  - Description: Total number of questions asked of a human operator

siloscript_questions_answered_total{outcome}:
  - Type: Counter
  - Description: Total number of questions answered, by outcome (every answered question is counted as ok)

Run Metrics:

siloscript_runs_total{status}:
  - Type: Counter
  - Description: Total script runs by outcome: ok when the script ran to exit (whatever its exit code), error when it could not be run

siloscript_run_duration_seconds:
  - Type: Histogram
  - Description: Time taken for a script run to complete, from exec to exit

siloscript_runs_in_flight:
  - Type: Gauge
  - Description: Number of script runs currently executing

Data Façade Metrics:

siloscript_data_requests_total{method, status}:
  - Type: Counter
  - Description: Total data façade requests by HTTP method (GET, PUT, POST for token creation) and status code

siloscript_data_request_duration_seconds{method}:
  - Type: Histogram
  - Description: Data façade request duration, including any human-answer wait

Store Metrics:

siloscript_store_operation_duration_seconds{op, backend}:
  - Type: Histogram
  - Description: Time taken for a store Get/Put/Delete, by backend (memory, sql); the encrypting wrapper records crypto durations instead

siloscript_store_errors_total{backend, kind}:
  - Type: Counter
  - Description: Store errors by backend and kind (not_found, crypt, io)

Crypto Metrics:

siloscript_crypto_queue_depth:
  - Type: Gauge
  - Description: Jobs waiting on the encrypting store's worker pool

siloscript_crypto_operation_duration_seconds{op}:
  - Type: Histogram
  - Description: Time taken for an encrypt or decrypt operation

# Usage

Updating gauges and counters directly, for request-scoped metrics with no
natural event to subscribe to:

	import "github.com/cuemby/siloscript/pkg/metrics"

	metrics.SilosOpen.Inc()
	defer metrics.SilosOpen.Dec()

Recording histogram observations with the Timer helper:

	timer := metrics.NewTimer()
	// ... do the operation ...
	timer.ObserveDurationVec(metrics.StoreOperationDuration, "get", "sql")

Starting the periodic collector against a Machine:

	collector := metrics.NewCollector(m) // m satisfies metrics.Stats
	collector.Start()
	defer collector.Stop()

Subscribing the observer to a Machine's event broker (done once, inside
machine.New — shown here for reference):

	done := make(chan struct{})
	go metrics.Observe(broker, done)
	// ... later, on shutdown ...
	close(done)

Exposing the endpoint:

	mux.Handle("/metrics", metrics.Handler())

# Integration Points

This package integrates with:

  - pkg/machine: implements metrics.Stats for the Collector; publishes the
    question/run lifecycle events metrics.Observe subscribes to
  - pkg/store: records operation duration and error counters per backend,
    and crypto queue depth/duration for the encrypting wrapper's workers
  - pkg/httpapi: instruments façade request count and duration
  - Prometheus: scrapes /metrics on the Control façade

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate registration
  - No runtime registration needed

Label Discipline:
  - Labels are bounded (status, outcome, backend, op) — never handle, channel, or question IDs
  - Keeps per-metric cardinality small regardless of how many silos or runs exist

Timer Pattern:
  - Create a Timer at operation start, observe duration at completion
  - Works with both plain histograms and label vectors
*/
package metrics

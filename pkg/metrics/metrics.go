// Copyright 2025 UMH Systems GmbH
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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Component Labels.
	ComponentContainer = "container"
	ComponentJournal   = "journal"
	ComponentDelta     = "delta_provider"
	ComponentEvents    = "event_bus"
	// Storage.
	ComponentPersistence = "persistence"
	ComponentArchive     = "archive"
	ComponentCodec       = "codec"
)

const (
	// Direction labels for provider failures.
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "docjournal"
	subsystem = "core"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	// History mutation counters.
	commitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commits_total",
			Help:      "Total number of change records committed to history",
		},
		[]string{"container"},
	)

	truncatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "truncated_records_total",
			Help:      "Total number of redoable records discarded by commits after undo",
		},
		[]string{"container"},
	)

	undoTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "undo_total",
			Help:      "Total number of successful undo operations",
		},
		[]string{"container"},
	)

	redoTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redo_total",
			Help:      "Total number of successful redo operations",
		},
		[]string{"container"},
	)

	providerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_failures_total",
			Help:      "Total number of change applications refused by the delta provider",
		},
		[]string{"container", "direction"},
	)

	frozenDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frozen_write_drops_total",
			Help:      "Total number of writes silently dropped while the container was frozen",
		},
		[]string{"container"},
	)

	batchCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_commits_total",
			Help:      "Total number of batches that ended with a coalesced record",
		},
		[]string{"container"},
	)

	// Reconstruction timing.
	reconstructTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconstruct_duration_seconds",
			Help:      "Time taken to reconstruct a historical tree in seconds",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"container"},
	)

	// Journal state metrics.
	journalEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "journal_entries",
			Help:      "Current number of retained change records",
		},
		[]string{"container"},
	)

	journalPosition = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "journal_position",
			Help:      "Current history cursor (records applied from the baseline)",
		},
		[]string{"container"},
	)

	// Persistence operation metrics.
	persistenceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persistence_ops_total",
			Help:      "Total number of persistence operations by type and backend",
		},
		[]string{"operation", "collection", "backend"},
	)

	persistenceOpsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persistence_ops_duration_seconds",
			Help:      "Duration of persistence operations in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "backend"},
	)
)

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// InitErrorCounter materializes the errors_total series for a component
// at zero, so the first failure shows up as a rate rather than a new
// series appearing.
func InitErrorCounter(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Add(0)
}

// IncCommit increments the commit counter for a container.
func IncCommit(container string) {
	commitsTotal.WithLabelValues(container).Inc()
}

// AddTruncatedRecords adds the number of redoable records a commit discarded.
func AddTruncatedRecords(container string, count int) {
	if count <= 0 {
		return
	}

	truncatedTotal.WithLabelValues(container).Add(float64(count))
}

// IncUndo increments the undo counter for a container.
func IncUndo(container string) {
	undoTotal.WithLabelValues(container).Inc()
}

// IncRedo increments the redo counter for a container.
func IncRedo(container string) {
	redoTotal.WithLabelValues(container).Inc()
}

// IncProviderFailure increments the provider failure counter for a container.
// direction is DirectionForward or DirectionBackward.
func IncProviderFailure(container, direction string) {
	providerFailuresTotal.WithLabelValues(container, direction).Inc()
}

// IncFrozenWriteDrop increments the frozen write drop counter for a container.
func IncFrozenWriteDrop(container string) {
	frozenDropsTotal.WithLabelValues(container).Inc()
}

// IncBatchCommit increments the batch commit counter for a container.
func IncBatchCommit(container string) {
	batchCommitsTotal.WithLabelValues(container).Inc()
}

// ObserveReconstructTime records the time taken to reconstruct a historical tree.
func ObserveReconstructTime(container string, duration time.Duration) {
	reconstructTime.WithLabelValues(container).Observe(duration.Seconds())
}

// UpdateJournalState updates the entry count and cursor gauges for a container.
func UpdateJournalState(container string, entries, position int) {
	journalEntries.WithLabelValues(container).Set(float64(entries))
	journalPosition.WithLabelValues(container).Set(float64(position))
}

// RecordPersistenceOp records a persistence operation metric.
func RecordPersistenceOp(operation, collection, backend string, duration time.Duration) {
	persistenceOpsTotal.WithLabelValues(operation, collection, backend).Inc()
	persistenceOpsDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

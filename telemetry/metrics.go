// Package telemetry holds logging setup and the Prometheus metrics for the
// audit trail and storage rotation. Metrics register against the default
// registry and are served on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuditEventsTotal counts history events written, by event kind
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_audit_events_total",
			Help: "Total number of audit events appended to the history, by event kind.",
		},
		[]string{"kind"},
	)

	// PartialAuditFailuresTotal counts mutations that took effect without their audit event
	PartialAuditFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_partial_audit_failures_total",
			Help: "Mutations applied whose audit event could not be written, by collection.",
		},
		[]string{"collection"},
	)
)

var (
	// RotationRowsRemovedTotal counts rows pruned by storage rotation, by dataset
	RotationRowsRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_rotation_rows_removed_total",
			Help: "Rows removed by storage rotation, by dataset.",
		},
		[]string{"dataset"},
	)

	// RotationErrorsTotal counts datasets a rotation pass had to skip
	RotationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_rotation_errors_total",
			Help: "Datasets skipped by a rotation pass because they could not be read or rewritten.",
		},
		[]string{"dataset"},
	)

	// StorageUsageBytes is the aggregate size last measured by rotation
	StorageUsageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cmms_storage_usage_bytes",
			Help: "Aggregate size of the managed datasets at the last measurement.",
		},
	)
)

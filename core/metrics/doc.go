// Package metrics defines how a simulation run reports what it produced.
// Recorders receive every telemetry record and, when they implement the
// optional interfaces, the fleet size and the run summary. Concrete
// Prometheus and InfluxDB recorders live in infra/metrics; several recorders
// are combined with NewMultiRecorder.
package metrics

// Package infra contains technical adapters such as the zerolog logger, the
// MQTT telemetry publisher and the metrics recorders. These
// packages depend only on interfaces defined in the core packages.
package infra

// Package zap adapts go.uber.org/zap to the project log facade: JSON
// events on stderr (stdout is reserved for snapshot output), an
// environment-profiled base configuration, a runtime-adjustable level,
// and automatic trace correlation when the calling context carries an
// OpenTelemetry span.
package zap

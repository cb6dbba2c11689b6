// Package telemetry wraps OpenTelemetry SDK setup for the memory engine.
package telemetry

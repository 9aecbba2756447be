// Package telemetry wires OpenTelemetry tracing and metrics for personarank.
//
// Instrumented packages call otel.Tracer and otel.Meter directly. New
// installs OTLP-backed providers as the globals when telemetry is enabled;
// otherwise the globals stay no-op and instrumentation costs nothing.
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  service_name: "personarank"
//	  sampling:
//	    rate: 1.0
//	  metrics:
//	    enabled: true
//	    export_interval: "15s"
//
// A run is short, so Shutdown must be called before exit to flush what the
// batch processors still hold.
//
// # Error Handling
//
// Exporter setup failures do not fail the run. The instance is marked
// degraded and the globals stay no-op.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	restore := tt.Install()
//	defer restore()
//	// ... run instrumented code ...
//	tt.AssertSpanExists(t, "ranking.Rank")
package telemetry

// Package instrumentation provides OpenTelemetry-based metrics, tracing and
// audit logging for the MCP server.
//
// Metrics are exported via Prometheus (default), OTLP or stdout. Tracing is
// disabled by default and can be enabled with an OTLP or stdout exporter.
// All configuration is environment-driven, see DefaultConfig.
//
// Recorded metrics cover HTTP request handling, Marketing API operations
// (including retries and rate limiting), OAuth flows and MCP tool
// invocations.
package instrumentation

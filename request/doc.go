// Package request implements the retrying execution core for AWS-style
// service calls.
//
// A logical call is described by a Request and run by an Executor, which
// signs, sends, classifies and retries attempts until a success or a
// terminal failure:
//
//   - 2xx and 304 responses succeed.
//   - 301 is terminal and signals a probable region misconfiguration.
//   - 5xx responses and connectivity failures retry under the general
//     attempt ceiling.
//   - 4xx responses are decoded as structured service errors; only a
//     small whitelist of throttling codes retries, under a separate
//     ceiling.
//   - Signing failures abort immediately.
//
// Backoff between attempts is exponential with full jitter. Every
// attempt is re-signed and reported to the configured telemetry sink.
package request

// Package server exposes the agent over HTTP.
//
// The agent API accepts POST /agent with {"message": "..."} and answers with
// the run Output. GET /health, /healthz and /readyz serve probes. Every
// request is recorded in the HTTP metrics of the instrumentation package.
//
// MetricsServer serves Prometheus metrics on a dedicated port so that
// operational data is not reachable through the public API address.
package server

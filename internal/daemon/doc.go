// Package daemon keeps the report fresh: it re-runs the full pipeline when the
// configuration or a section source changes, or on a schedule, and optionally
// serves Prometheus metrics. Runs are serialized; no two share a workspace.
package daemon

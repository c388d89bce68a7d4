// Package metrics provides run metrics for the report pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	svc := report.NewService().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// Metrics are exposed either through HTTPHandler (watch and schedule modes) or
// written once per run with WriteTextfile for the node_exporter textfile collector.
package metrics

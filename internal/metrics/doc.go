// Package metrics records build and stage metrics for sitebuild.
//
// Components receive a Recorder through injection and default to NoopRecorder,
// so call sites never check for nil:
//
//	svc := build.NewService().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A PrometheusRecorder registers its collectors on the registry it is given.
// The registry can be written to a node_exporter textfile after a one-shot
// build (WriteTextfile) or scraped over HTTP while watching (HTTPHandler).
package metrics

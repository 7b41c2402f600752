// Package metrics records what a single previewnote run did: lines scanned,
// links found, GitLab API calls and link checks.
//
// The default NoopRecorder discards everything. PrometheusRecorder keeps the
// values in a private registry that can be pushed to a Pushgateway at the end of
// the CI job.
package metrics

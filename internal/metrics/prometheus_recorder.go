package metrics

import (
	"context"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "previewnote"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg *prom.Registry

	scanLines      prom.Gauge
	scanEntries    prom.Gauge
	scanMalformed  prom.Gauge
	scanSeries     prom.Gauge
	apiDuration    *prom.HistogramVec
	apiRequests    *prom.CounterVec
	apiRetries     *prom.CounterVec
	linkChecks     *prom.CounterVec
	noteBytes      prom.Gauge
	runDuration    prom.Gauge
	runOutcome     *prom.CounterVec
	lastCompletion prom.Gauge
}

// NewPrometheusRecorder constructs and registers the run metrics on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	gauge := func(name, help string) prom.Gauge {
		return prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	pr := &PrometheusRecorder{
		reg:           reg,
		scanLines:     gauge("scan_lines", "Lines read from the preview log"),
		scanEntries:   gauge("scan_entries", "Preview lines parsed into links"),
		scanMalformed: gauge("scan_malformed_lines", "Preview lines skipped as malformed"),
		scanSeries:    gauge("scan_series", "Distinct chip series found"),
		apiDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "gitlab_request_duration_seconds",
			Help:      "Duration of GitLab API requests",
			Buckets:   prom.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		apiRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gitlab_requests_total",
			Help:      "GitLab API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		apiRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gitlab_request_retries_total",
			Help:      "GitLab API request retries by endpoint",
		}, []string{"endpoint"}),
		linkChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_checks_total",
			Help:      "Preview link checks by outcome",
		}, []string{"outcome"}),
		noteBytes:   gauge("note_bytes", "Size of the rendered note body"),
		runDuration: gauge("run_duration_seconds", "Wall time of the run"),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by outcome",
		}, []string{"outcome"}),
		lastCompletion: gauge("last_completion_timestamp_seconds", "Unix time the run finished"),
	}
	reg.MustRegister(pr.scanLines, pr.scanEntries, pr.scanMalformed, pr.scanSeries,
		pr.apiDuration, pr.apiRequests, pr.apiRetries, pr.linkChecks,
		pr.noteBytes, pr.runDuration, pr.runOutcome, pr.lastCompletion)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveScan(s ScanStats) {
	p.scanLines.Set(float64(s.Lines))
	p.scanEntries.Set(float64(s.Entries))
	p.scanMalformed.Set(float64(s.Malformed))
	p.scanSeries.Set(float64(s.Series))
}

func (p *PrometheusRecorder) ObserveAPIRequest(endpoint string, d time.Duration, outcome Outcome) {
	p.apiDuration.WithLabelValues(endpoint, string(outcome)).Observe(d.Seconds())
	p.apiRequests.WithLabelValues(endpoint, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncAPIRetry(endpoint string) {
	p.apiRetries.WithLabelValues(endpoint).Inc()
}

func (p *PrometheusRecorder) IncLinkCheck(outcome Outcome) {
	p.linkChecks.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetNoteBytes(n int) { p.noteBytes.Set(float64(n)) }

func (p *PrometheusRecorder) ObserveRun(d time.Duration, outcome Outcome) {
	p.runDuration.Set(d.Seconds())
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
	p.lastCompletion.SetToCurrentTime()
}

// Push sends the registry to the Pushgateway at url under job, grouped by the
// given label pairs.
func (p *PrometheusRecorder) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(p.reg)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	return pusher.PushContext(ctx)
}

package linkverify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/logfields"
	"git.home.luguber.info/inful/previewnote/internal/markdown"
	"git.home.luguber.info/inful/previewnote/internal/metrics"
)

// Result is the outcome of checking one link.
type Result struct {
	Link   *Link
	Status int
	Err    error
}

// OK reports whether the link answered with a non-error status.
func (r Result) OK() bool {
	return r.Err == nil && r.Status > 0 && r.Status < 400
}

// Verifier probes preview links before the note is posted. Failures are
// reported, never fatal.
type Verifier struct {
	client   *http.Client
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewVerifier creates a Verifier with the given per-request timeout.
func NewVerifier(timeout time.Duration, insecure bool, recorder metrics.Recorder, logger *slog.Logger) *Verifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, //nolint:gosec // opt-in via --insecure
		}
	}
	return &Verifier{
		client:   &http.Client{Timeout: timeout, Transport: transport},
		recorder: recorder,
		logger:   logger,
	}
}

// WithHTTPClient replaces the HTTP client (used by tests).
func (v *Verifier) WithHTTPClient(c *http.Client) *Verifier {
	v.client = c
	return v
}

// VerifyNote renders the markdown note, extracts its links and checks each one.
func (v *Verifier) VerifyNote(ctx context.Context, note string) ([]Result, error) {
	rendered, err := markdown.RenderHTML([]byte(note))
	if err != nil {
		return nil, fmt.Errorf("render note: %w", err)
	}
	links, err := ExtractLinksFromReader(bytes.NewReader(rendered))
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, links), nil
}

// Verify checks every verifiable link sequentially.
func (v *Verifier) Verify(ctx context.Context, links []*Link) []Result {
	results := make([]Result, 0, len(links))
	for _, link := range links {
		if !ShouldVerifyLink(link) {
			v.recorder.IncLinkCheck(metrics.OutcomeSkipped)
			continue
		}
		status, err := v.check(ctx, link.URL)
		res := Result{Link: link, Status: status, Err: err}
		results = append(results, res)

		if res.OK() {
			v.recorder.IncLinkCheck(metrics.OutcomeSuccess)
			v.logger.Debug("Preview link reachable", logfields.URL(link.URL), logfields.Status(status))
			continue
		}
		v.recorder.IncLinkCheck(metrics.OutcomeFailure)
		v.logger.Warn("Preview link not reachable",
			logfields.URL(link.URL),
			logfields.Status(status),
			logfields.Error(err),
			slog.String("text", link.Text))
	}
	return results
}

// check sends HEAD and falls back to GET when the server rejects HEAD.
func (v *Verifier) check(ctx context.Context, url string) (int, error) {
	status, err := v.do(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		return v.do(ctx, http.MethodGet, url)
	}
	return status, err
}

func (v *Verifier) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "previewnote-linkcheck")
	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

// Package app wires the scan, format and publish steps of a run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/forge"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/linkverify"
	"git.home.luguber.info/inful/previewnote/internal/logfields"
	"git.home.luguber.info/inful/previewnote/internal/markdown"
	"git.home.luguber.info/inful/previewnote/internal/metrics"
	"git.home.luguber.info/inful/previewnote/internal/note"
	"git.home.luguber.info/inful/previewnote/internal/observability"
	"git.home.luguber.info/inful/previewnote/internal/previewlog"
	"git.home.luguber.info/inful/previewnote/internal/publish"
	"git.home.luguber.info/inful/previewnote/internal/retry"
)

// Options are the inputs of a post run.
type Options struct {
	Config       *config.Config
	Token        string
	Project      string
	MergeRequest string
	GitLabURL    string
	// DryRun formats the note and stops before any API call.
	DryRun bool

	Logger *slog.Logger
	// HTTPClient overrides the GitLab client transport.
	HTTPClient *http.Client
	// RunID is generated when empty and sent as X-Request-Id.
	RunID string
}

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Note      string
	Scan      *previewlog.Result
	// NoteLinks are the markdown links of Note in document order.
	NoteLinks []markdown.Link
	Links     []linkverify.Result
	Published *publish.Result
}

// Run scans the preview log, formats the note and posts it to the merge
// request. The log file is fully read and closed before any network call.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithProject(ctx, opts.Project)
	ctx = observability.WithMergeRequest(ctx, opts.MergeRequest)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.PushgatewayURL != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	start := time.Now()
	summary, err := run(ctx, cfg, opts, runID, recorder, logger)
	recorder.ObserveRun(time.Since(start), metrics.OutcomeOf(err))

	if prom != nil {
		grouping := map[string]string{"project": opts.Project, "merge_request": opts.MergeRequest}
		if pErr := prom.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, grouping); pErr != nil {
			logger.WarnContext(ctx, "Failed to push metrics",
				logfields.URL(cfg.Metrics.PushgatewayURL),
				logfields.Error(pErr))
		}
	}
	return summary, err
}

func run(ctx context.Context, cfg *config.Config, opts Options, runID string, recorder metrics.Recorder, logger *slog.Logger) (*Summary, error) {
	summary := &Summary{RunID: runID}

	body, res, err := build(ctx, cfg, recorder, logger)
	if err != nil {
		return summary, err
	}
	summary.Scan = res
	summary.Note = body
	summary.NoteLinks = markdown.ExtractLinks([]byte(body))

	if cfg.LinkVerification.Enabled {
		sctx, st := observability.StartStage(ctx, logger, "verify")
		v := linkverify.NewVerifier(cfg.LinkVerification.Timeout, cfg.GitLab.InsecureSkipVerify, recorder, logger)
		summary.Links, err = v.VerifyNote(sctx, body)
		st.End(err)
		if err != nil {
			logger.WarnContext(ctx, "Link verification skipped", logfields.Error(err))
		}
	}

	if opts.DryRun {
		logger.InfoContext(ctx, "Dry run, note not posted",
			slog.Int("bytes", len(body)),
			slog.Int("links", len(summary.NoteLinks)))
		return summary, nil
	}

	policy, err := retry.FromConfig(cfg.Retry)
	if err != nil {
		return summary, err
	}

	client, err := forge.NewGitLabClient(forge.GitLabOptions{
		BaseURL:            opts.GitLabURL,
		Token:              opts.Token,
		TokenType:          cfg.GitLab.TokenType,
		InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
		Timeout:            cfg.GitLab.Timeout,
		RequestID:          runID,
		HTTPClient:         opts.HTTPClient,
	})
	if err != nil {
		return summary, err
	}
	if cfg.GitLab.InsecureSkipVerify {
		logger.WarnContext(ctx, "TLS certificate verification disabled", logfields.URL(client.BaseURL()))
	}

	pctx, st := observability.StartStage(ctx, logger, "publish")
	pub := publish.New(client,
		publish.WithRetryPolicy(policy),
		publish.WithRecorder(recorder),
		publish.WithLogger(logger))
	summary.Published, err = pub.Publish(pctx, publish.Target{Project: opts.Project, MergeRequest: opts.MergeRequest}, body)
	st.End(err)
	return summary, err
}

// build scans the log and formats the note.
func build(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) (string, *previewlog.Result, error) {
	sctx, st := observability.StartStage(ctx, logger, "scan")
	res, err := previewlog.ScanFile(cfg.LogFile, previewlog.Options{
		Marker: cfg.Marker,
		Strict: cfg.Malformed == config.MalformedFail,
		Logger: logger,
	})
	st.End(err)
	if err != nil {
		return "", nil, err
	}
	recorder.ObserveScan(metrics.ScanStats{
		Lines:     res.Lines,
		Entries:   len(res.Entries),
		Malformed: len(res.Malformed),
		Series:    res.Links.Len(),
	})
	logger.InfoContext(sctx, "Scanned preview log",
		logfields.Path(cfg.LogFile),
		slog.Int("entries", len(res.Entries)),
		slog.Int("series", res.Links.Len()),
		slog.Int("malformed", len(res.Malformed)))

	body := note.NewFormatter(cfg.Note).Format(res.Links)
	recorder.SetNoteBytes(len(body))
	logger.DebugContext(ctx, "Formatted note", slog.String("body", body))
	return body, res, nil
}

// Render scans and formats without contacting GitLab, writing the markdown
// note, or its HTML rendering, to w.
func Render(ctx context.Context, cfg *config.Config, html bool, w io.Writer, logger *slog.Logger) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	body, _, err := build(ctx, cfg, metrics.NoopRecorder{}, logger)
	if err != nil {
		return err
	}
	out := []byte(body)
	if html {
		out, err = markdown.RenderHTML(out)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to render note").Build()
		}
	}
	if _, err := w.Write(out); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write note").Build()
	}
	return nil
}

// Describe returns a one-line human summary of a completed run.
func (s *Summary) Describe() string {
	switch {
	case s == nil:
		return ""
	case s.Published != nil && s.Published.URL != "":
		return fmt.Sprintf("Posted preview note: %s", s.Published.URL)
	case s.Published != nil:
		return fmt.Sprintf("Posted preview note %d", s.Published.Note.ID)
	case s.Scan != nil:
		return fmt.Sprintf("Preview note not posted (%d series, %d links)", s.Scan.Links.Len(), len(s.NoteLinks))
	default:
		return "Preview note not posted"
	}
}

// Package publish posts a formatted note to a GitLab merge request.
package publish

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/forge"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/logfields"
	"git.home.luguber.info/inful/previewnote/internal/metrics"
	"git.home.luguber.info/inful/previewnote/internal/retry"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointGetProject      = "get_project"
	EndpointGetMergeRequest = "get_merge_request"
	EndpointCreateNote      = "create_note"
)

// Client is the subset of the GitLab API the publisher needs.
type Client interface {
	GetProject(ctx context.Context, path string) (*forge.Project, error)
	GetMergeRequest(ctx context.Context, projectID int, iid string) (*forge.MergeRequest, error)
	CreateMergeRequestNote(ctx context.Context, projectID int, iid, body string) (*forge.Note, error)
}

// Target identifies the merge request to comment on.
type Target struct {
	Project      string
	MergeRequest string
}

// Result describes a posted note.
type Result struct {
	Project      *forge.Project
	MergeRequest *forge.MergeRequest
	Note         *forge.Note
	// URL links directly to the note in the merge request discussion.
	URL string
}

// Publisher resolves the merge request and creates the note.
type Publisher struct {
	client   Client
	policy   retry.Policy
	sleep    retry.Sleeper
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithRetryPolicy sets the policy used for the lookups.
func WithRetryPolicy(p retry.Policy) Option { return func(pub *Publisher) { pub.policy = p } }

// WithSleeper overrides the wait between retries.
func WithSleeper(s retry.Sleeper) Option { return func(pub *Publisher) { pub.sleep = s } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(pub *Publisher) { pub.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(pub *Publisher) { pub.logger = l } }

// New creates a Publisher. Without options lookups are attempted once.
func New(client Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:   client,
		policy:   retry.DefaultPolicy(),
		sleep:    retry.Sleep,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish looks up the project and merge request, then creates the note
// exactly once. Any lookup failure aborts before the notes endpoint is called.
func (p *Publisher) Publish(ctx context.Context, target Target, body string) (*Result, error) {
	if p.client == nil {
		return nil, errors.InternalError("publisher has no GitLab client").Build()
	}

	var project *forge.Project
	err := p.lookup(ctx, EndpointGetProject, func(ctx context.Context) error {
		var err error
		project, err = p.client.GetProject(ctx, target.Project)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.DebugContext(ctx, "Resolved project",
		logfields.Project(project.PathWithNamespace),
		slog.Int("project_id", project.ID))

	var mr *forge.MergeRequest
	err = p.lookup(ctx, EndpointGetMergeRequest, func(ctx context.Context) error {
		var err error
		mr, err = p.client.GetMergeRequest(ctx, project.ID, target.MergeRequest)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.DebugContext(ctx, "Resolved merge request",
		logfields.MergeRequest(target.MergeRequest),
		slog.String("title", mr.Title),
		slog.String("state", mr.State))

	var note *forge.Note
	err = p.timed(ctx, EndpointCreateNote, func(ctx context.Context) error {
		var err error
		note, err = p.client.CreateMergeRequestNote(ctx, project.ID, target.MergeRequest, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Project: project, MergeRequest: mr, Note: note, URL: forge.NoteURL(mr, note)}
	p.logger.InfoContext(ctx, "Posted merge request note",
		slog.Int("note_id", note.ID),
		logfields.URL(res.URL))
	return res, nil
}

func (p *Publisher) lookup(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	return p.policy.Do(ctx, p.sleep,
		func(ctx context.Context) error { return p.timed(ctx, endpoint, fn) },
		errors.IsRetryable,
		func(attempt int, err error) {
			p.recorder.IncAPIRetry(endpoint)
			p.logger.WarnContext(ctx, "Retrying GitLab request",
				logfields.Endpoint(endpoint),
				logfields.Attempt(attempt),
				logfields.Error(err))
		})
}

func (p *Publisher) timed(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	p.recorder.ObserveAPIRequest(endpoint, d, metrics.OutcomeOf(err))
	if err != nil {
		p.logger.DebugContext(ctx, "GitLab request failed",
			logfields.Endpoint(endpoint),
			logfields.Status(forge.StatusCode(err)),
			logfields.DurationMS(float64(d.Microseconds())/1000),
			logfields.Category(string(errors.GetCategory(err))),
			logfields.Error(err))
	}
	return err
}

package observability

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/logfields"
)

// Stage times one step of a run and logs its completion.
type Stage struct {
	ctx    context.Context
	logger *slog.Logger
	name   string
	start  time.Time
}

// StartStage returns a context tagged with the stage name and a Stage to end
// once the step is done.
func StartStage(ctx context.Context, logger *slog.Logger, name string) (context.Context, *Stage) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = WithStage(ctx, name)
	logger.DebugContext(ctx, "Stage started")
	return ctx, &Stage{ctx: ctx, logger: logger, name: name, start: time.Now()}
}

// Name returns the stage name.
func (s *Stage) Name() string { return s.name }

// End logs the stage duration and returns it. A non-nil err is logged at error level.
func (s *Stage) End(err error) time.Duration {
	d := time.Since(s.start)
	ms := float64(d.Microseconds()) / 1000
	if err != nil {
		s.logger.ErrorContext(s.ctx, "Stage failed", logfields.DurationMS(ms), logfields.Error(err))
		return d
	}
	s.logger.DebugContext(s.ctx, "Stage completed", logfields.DurationMS(ms))
	return d
}

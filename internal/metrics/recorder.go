package metrics

import "time"

// Outcome labels the result of an operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// ScanStats summarizes one scan of the preview log.
type ScanStats struct {
	Lines     int
	Entries   int
	Malformed int
	Series    int
}

// Recorder defines observability hooks for a run. Implementations must be safe
// to call from a single goroutine; NoopRecorder is the default.
type Recorder interface {
	ObserveScan(stats ScanStats)
	ObserveAPIRequest(endpoint string, d time.Duration, outcome Outcome)
	IncAPIRetry(endpoint string)
	IncLinkCheck(outcome Outcome)
	SetNoteBytes(n int)
	ObserveRun(d time.Duration, outcome Outcome)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveScan(ScanStats)                            {}
func (NoopRecorder) ObserveAPIRequest(string, time.Duration, Outcome) {}
func (NoopRecorder) IncAPIRetry(string)                               {}
func (NoopRecorder) IncLinkCheck(Outcome)                             {}
func (NoopRecorder) SetNoteBytes(int)                                 {}
func (NoopRecorder) ObserveRun(time.Duration, Outcome)                {}

// OutcomeOf maps an error to success or failure.
func OutcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

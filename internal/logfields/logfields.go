package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID        = "run_id"
	KeyProject      = "project"
	KeyMergeRequest = "mr_iid"
	KeySeries       = "series"
	KeyLanguage     = "language"
	KeyURL          = "url"
	KeyPath         = "path"
	KeyLine         = "line"
	KeyEndpoint     = "endpoint"
	KeyStatus       = "status"
	KeyAttempt      = "attempt"
	KeyDurationMS   = "duration_ms"
	KeyError        = "error"
	KeyCategory     = "category"
)

func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Project(p string) slog.Attr        { return slog.String(KeyProject, p) }
func MergeRequest(iid string) slog.Attr { return slog.String(KeyMergeRequest, iid) }
func Series(s string) slog.Attr         { return slog.String(KeySeries, s) }
func Language(l string) slog.Attr       { return slog.String(KeyLanguage, l) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Line(n int) slog.Attr              { return slog.Int(KeyLine, n) }
func Endpoint(e string) slog.Attr       { return slog.String(KeyEndpoint, e) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Category(c string) slog.Attr       { return slog.String(KeyCategory, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

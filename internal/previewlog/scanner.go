package previewlog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/logfields"
)

// DefaultMarker prefixes every preview line written by the documentation jobs.
const DefaultMarker = "[document preview]"

// Options controls scanning.
type Options struct {
	// Marker is the line prefix to match; DefaultMarker when empty.
	Marker string
	// Strict aborts the scan on the first malformed preview line instead of skipping it.
	Strict bool
	Logger *slog.Logger
}

// Malformed describes a preview line that was skipped.
type Malformed struct {
	Line   int
	Text   string
	Reason string
}

// Result is the outcome of a scan.
type Result struct {
	Links     *Links
	Entries   []Entry
	Malformed []Malformed
	// Lines is the total number of lines read.
	Lines int
}

// ScanFile opens path, scans it to completion and closes it.
func ScanFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open preview log").
			Fatal().
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	res, err := Scan(f, opts)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return res, nil
}

// Scan reads preview lines from r.
func Scan(r io.Reader, opts Options) (*Result, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{Links: NewLinks()}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		res.Lines++
		text := sc.Text()
		if !strings.HasPrefix(text, marker) {
			continue
		}

		entry, reason := ParseLine(text[len(marker):])
		if reason != "" {
			if opts.Strict {
				return nil, errors.ValidationError("malformed preview line").
					WithContext("line", res.Lines).
					WithContext("text", text).
					WithContext("reason", reason).
					Build()
			}
			logger.Warn("Skipping malformed preview line",
				logfields.Line(res.Lines),
				slog.String("reason", reason),
				slog.String("text", text))
			res.Malformed = append(res.Malformed, Malformed{Line: res.Lines, Text: text, Reason: reason})
			continue
		}

		entry.Line = res.Lines
		res.Entries = append(res.Entries, entry)
		res.Links.Add(entry)
		logger.Debug("Preview link found",
			logfields.Series(entry.Series),
			logfields.Language(string(entry.Language)),
			logfields.URL(entry.URL),
			logfields.Line(entry.Line))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read preview log").Fatal().Build()
	}
	return res, nil
}

// ParseLine parses the part of a preview line after the marker, e.g.
// "[zh_CN_esp32s3][https://host/zh_CN/esp32s3/]". It returns a non-empty reason
// when the line cannot be parsed; nothing is inferred from earlier lines.
func ParseLine(rest string) (Entry, string) {
	segments := strings.Split(rest, "]")
	if len(segments) < 2 {
		return Entry{}, "missing url segment"
	}

	tag := trimSegment(segments[0])
	url := trimSegment(segments[1])
	if url == "" {
		return Entry{}, "empty url"
	}

	parts := strings.Split(tag, "_")
	var entry Entry
	switch len(parts) {
	case 2:
		entry = Entry{Language: English, Series: parts[1]}
	case 3:
		entry = Entry{Language: Chinese, Series: parts[2]}
	default:
		return Entry{}, fmt.Sprintf("tag %q has %d underscore-separated parts, want 2 or 3", tag, len(parts))
	}
	if entry.Series == "" {
		return Entry{}, fmt.Sprintf("tag %q has an empty chip series", tag)
	}
	entry.URL = url
	return entry, ""
}

func trimSegment(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "["))
}

package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// WithOutput sets where formatted errors are printed (stderr by default).
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// WithExit replaces os.Exit, e.g. to return the code from a testable main.
func (a *CLIErrorAdapter) WithExit(exit func(int)) *CLIErrorAdapter {
	a.exit = exit
	return a
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch classified.Category() {
	case CategoryValidation:
		return 2
	case CategoryAuth:
		return 5
	case CategoryConfig:
		return 7
	case CategoryNetwork, CategoryForge, CategoryNotFound:
		return 8
	case CategoryInternal:
		return 10
	case CategoryFileSystem:
		return 11
	default:
		return 1
	}
}

// FormatError formats an error for display on stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	if classified.Unwrap() != nil {
		return fmt.Sprintf("Error: %s: %v (use -v for details)", classified.Message(), classified.Unwrap())
	}
	return fmt.Sprintf("Error: %s", classified.Message())
}

// HandleError logs err, prints it and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if a.verbose {
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

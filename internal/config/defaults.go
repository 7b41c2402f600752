package config

import "time"

const (
	DefaultLogFile = "logs/doc-url.txt"
	DefaultMarker  = "[document preview]"
	DefaultHeader  = "Documentation preview:"
	DefaultJobName = "previewnote"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogFile:   DefaultLogFile,
		Marker:    DefaultMarker,
		Malformed: MalformedSkip,
		Note: NoteConfig{
			Header: DefaultHeader,
			Labels: Labels{Chinese: "勘误表", English: "Errata"},
		},
		GitLab: GitLabConfig{
			TokenType: TokenPrivate,
			Timeout:   30 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries: 0,
			Backoff:    RetryBackoffLinear,
			Initial:    time.Second,
			Max:        30 * time.Second,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics: MetricsConfig{Job: DefaultJobName},
		LinkVerification: LinkVerificationConfig{
			Timeout: 10 * time.Second,
		},
	}
}

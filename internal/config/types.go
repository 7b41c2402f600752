package config

import (
	"time"

	"git.home.luguber.info/inful/previewnote/internal/foundation/normalization"
)

// MalformedPolicy selects what the scanner does with a preview line whose tag
// segment cannot be parsed.
type MalformedPolicy string

const (
	MalformedSkip MalformedPolicy = "skip"
	MalformedFail MalformedPolicy = "fail"
)

var malformedNormalizer = normalization.NewNormalizer("malformed policy", map[string]MalformedPolicy{
	"skip": MalformedSkip,
	"fail": MalformedFail,
}, MalformedSkip)

// TokenType selects how the access token is presented to GitLab.
type TokenType string

const (
	// TokenPrivate sends the token in the PRIVATE-TOKEN header (personal, project and group tokens).
	TokenPrivate TokenType = "private"
	// TokenOAuth sends the token as an Authorization bearer.
	TokenOAuth TokenType = "oauth"
)

var tokenTypeNormalizer = normalization.NewNormalizer("token type", map[string]TokenType{
	"private": TokenPrivate,
	"oauth":   TokenOAuth,
	"bearer":  TokenOAuth,
}, TokenPrivate)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer("retry backoff", map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, RetryBackoffLinear)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug": LogLevelDebug,
	"info":  LogLevelInfo,
	"warn":  LogLevelWarn,
	"error": LogLevelError,
}, LogLevelInfo)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// NormalizeLogFormat maps raw input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat { return logFormatNormalizer.Normalize(raw) }

// Config is the full runtime configuration. Zero values are filled from Default.
type Config struct {
	LogFile          string                 `yaml:"log_file" validate:"required"`
	Marker           string                 `yaml:"marker" validate:"required"`
	Malformed        MalformedPolicy        `yaml:"malformed" validate:"oneof=skip fail"`
	Note             NoteConfig             `yaml:"note"`
	GitLab           GitLabConfig           `yaml:"gitlab"`
	Retry            RetryConfig            `yaml:"retry"`
	Logging          LoggingConfig          `yaml:"logging"`
	Metrics          MetricsConfig          `yaml:"metrics"`
	LinkVerification LinkVerificationConfig `yaml:"link_verification"`
}

// NoteConfig controls note rendering.
type NoteConfig struct {
	Header string `yaml:"header" validate:"required"`
	Labels Labels `yaml:"labels"`
	// Products extends or overrides the built-in chip series display names.
	Products map[string]string `yaml:"products" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// Labels are the per-language link captions.
type Labels struct {
	Chinese string `yaml:"zh_CN" validate:"required"`
	English string `yaml:"en" validate:"required"`
}

// GitLabConfig holds connection parameters for the GitLab API client.
type GitLabConfig struct {
	TokenType          TokenType     `yaml:"token_type" validate:"oneof=private oauth"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RetryConfig configures retries of read-only GitLab lookups.
type RetryConfig struct {
	MaxRetries int              `yaml:"max_retries" validate:"gte=0,lte=10"`
	Backoff    RetryBackoffMode `yaml:"backoff" validate:"oneof=fixed linear exponential"`
	Initial    time.Duration    `yaml:"initial" validate:"gt=0"`
	Max        time.Duration    `yaml:"max" validate:"gt=0,gtefield=Initial"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" validate:"oneof=debug info warn error"`
	Format LogFormat `yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig enables pushing run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job" validate:"required"`
}

// LinkVerificationConfig enables probing preview URLs before posting.
type LinkVerificationConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

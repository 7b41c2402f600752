package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the YAML file at path over Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize canonicalizes enum fields, rejecting unknown non-empty values.
func (c *Config) normalize() error {
	var err error
	if c.Malformed, err = malformedNormalizer.NormalizeWithError(string(c.Malformed)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid malformed policy").Fatal().Build()
	}
	if c.GitLab.TokenType, err = tokenTypeNormalizer.NormalizeWithError(string(c.GitLab.TokenType)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid gitlab token type").Fatal().Build()
	}
	if c.Retry.Backoff, err = retryBackoffNormalizer.NormalizeWithError(string(c.Retry.Backoff)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid retry backoff").Fatal().Build()
	}
	if c.Logging.Level, err = logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid log level").Fatal().Build()
	}
	if c.Logging.Format, err = logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid log format").Fatal().Build()
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid configuration").Fatal().Build()
	}
	return nil
}

// ParseMalformedPolicy exposes the malformed policy normalizer to CLI flags.
func ParseMalformedPolicy(raw string) (MalformedPolicy, error) {
	p, err := malformedNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid malformed policy").Fatal().Build()
	}
	return p, nil
}

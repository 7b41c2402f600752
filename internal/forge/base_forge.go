package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/version"
)

// BaseForge provides the HTTP plumbing shared by forge API calls: URL building,
// JSON bodies, authentication headers and status classification.
type BaseForge struct {
	httpClient *http.Client
	apiURL     string

	authHeader    string
	authValue     string
	customHeaders map[string]string
}

// NewBaseForge creates a BaseForge that sends token as an Authorization bearer.
func NewBaseForge(httpClient *http.Client, apiURL, token string) *BaseForge {
	return &BaseForge{
		httpClient:    httpClient,
		apiURL:        strings.TrimSuffix(apiURL, "/"),
		authHeader:    "Authorization",
		authValue:     "Bearer " + token,
		customHeaders: make(map[string]string),
	}
}

// SetAuthHeader replaces the authentication header (e.g. GitLab's PRIVATE-TOKEN).
func (b *BaseForge) SetAuthHeader(name, value string) {
	b.authHeader = name
	b.authValue = value
}

// SetCustomHeader sets a header sent with every request.
func (b *BaseForge) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// NewRequest creates an HTTP request for endpoint relative to the API URL.
// Path segments in endpoint must already be escaped; query strings are kept.
func (b *BaseForge) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	full := b.apiURL + "/" + strings.TrimPrefix(endpoint, "/")
	u, err := url.Parse(full)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse API URL").
			Fatal().
			WithContext("url", full).
			Build()
	}

	reqBody := io.Reader(http.NoBody)
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return nil, errors.WrapError(mErr, errors.CategoryInternal, "failed to marshal request body").Fatal().Build()
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create request").
			Fatal().
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(b.authHeader, b.authValue)
	req.Header.Set("User-Agent", version.UserAgent())
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

// DoRequest executes req and decodes a JSON response into result when non-nil.
func (b *BaseForge) DoRequest(req *http.Request, result any) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to execute GitLab request").
			Retryable().
			WithContext("method", req.Method).
			WithContext("url", req.URL.Redacted()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(req, resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.WrapError(err, errors.CategoryForge, "failed to decode GitLab response").
				WithContext("url", req.URL.Redacted()).
				Build()
		}
	}
	return nil
}

// statusError classifies an HTTP error response.
func statusError(req *http.Request, resp *http.Response) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.TrimSpace(strings.ReplaceAll(string(limitedBody), "\n", " "))

	var builder *errors.ErrorBuilder
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		builder = errors.AuthError(fmt.Sprintf("GitLab rejected credentials: %s", resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		builder = errors.NotFoundError(fmt.Sprintf("GitLab resource not found: %s", resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests:
		builder = errors.ForgeError(fmt.Sprintf("GitLab API error: %s", resp.Status)).RateLimit()
	case resp.StatusCode >= 500:
		builder = errors.ForgeError(fmt.Sprintf("GitLab API error: %s", resp.Status)).Retryable()
	default:
		builder = errors.ForgeError(fmt.Sprintf("GitLab API error: %s", resp.Status))
	}

	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("method", req.Method).
		WithContext("url", req.URL.Redacted()).
		WithContext("response", bodyStr).
		Build()
}

// StatusCode returns the HTTP status recorded on a forge error, or 0.
func StatusCode(err error) int {
	classified, ok := errors.AsClassified(err)
	if !ok {
		return 0
	}
	code, _ := classified.Context().Get("code")
	n, _ := code.(int)
	return n
}

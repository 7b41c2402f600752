package forge

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

const apiPath = "/api/v4"

// GitLabOptions configures a GitLab API client.
type GitLabOptions struct {
	// BaseURL is the instance URL, e.g. https://gitlab.example.com. A trailing /api/v4 is accepted.
	BaseURL   string
	Token     string
	TokenType config.TokenType
	// InsecureSkipVerify disables TLS certificate validation for self-signed instances.
	InsecureSkipVerify bool
	Timeout            time.Duration
	// RequestID is sent as X-Request-Id on every call when set.
	RequestID string
	// HTTPClient overrides the client built from Timeout and InsecureSkipVerify.
	HTTPClient *http.Client
}

// GitLabClient talks to the GitLab REST API v4.
type GitLabClient struct {
	*BaseForge
	baseURL string
}

// NewGitLabClient creates a new GitLab client.
func NewGitLabClient(opts GitLabOptions) (*GitLabClient, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	baseURL = strings.TrimSuffix(baseURL, apiPath)
	if baseURL == "" {
		return nil, errors.ConfigError("GitLab URL is required").Build()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout, opts.InsecureSkipVerify)
	}

	base := NewBaseForge(httpClient, baseURL+apiPath, opts.Token)
	if opts.TokenType != config.TokenOAuth {
		base.SetAuthHeader("PRIVATE-TOKEN", opts.Token)
	}
	if opts.RequestID != "" {
		base.SetCustomHeader("X-Request-Id", opts.RequestID)
	}

	return &GitLabClient{BaseForge: base, baseURL: baseURL}, nil
}

// newHTTPClient returns a client with the given timeout, 30s when zero.
func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, //nolint:gosec // opt-in via --insecure
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// BaseURL returns the instance URL without the API suffix.
func (c *GitLabClient) BaseURL() string { return c.baseURL }

// GetProject looks up a project by its namespace/project path.
func (c *GitLabClient) GetProject(ctx context.Context, path string) (*Project, error) {
	endpoint := "/projects/" + url.PathEscape(path)
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := c.DoRequest(req, &project); err != nil {
		return nil, withResource(err, "project", path)
	}
	return &project, nil
}

// GetMergeRequest looks up a merge request by IID within a project.
func (c *GitLabClient) GetMergeRequest(ctx context.Context, projectID int, iid string) (*MergeRequest, error) {
	endpoint := mergeRequestEndpoint(projectID, iid)
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var mr MergeRequest
	if err := c.DoRequest(req, &mr); err != nil {
		return nil, withResource(err, "merge_request", iid)
	}
	return &mr, nil
}

// CreateMergeRequestNote adds a comment with body to a merge request.
func (c *GitLabClient) CreateMergeRequestNote(ctx context.Context, projectID int, iid, body string) (*Note, error) {
	endpoint := mergeRequestEndpoint(projectID, iid) + "/notes"
	req, err := c.NewRequest(ctx, http.MethodPost, endpoint, createNoteRequest{Body: body})
	if err != nil {
		return nil, err
	}

	var n Note
	if err := c.DoRequest(req, &n); err != nil {
		return nil, withResource(err, "merge_request", iid)
	}
	return &n, nil
}

// NoteURL returns the browser URL of a note on a merge request.
func NoteURL(mr *MergeRequest, n *Note) string {
	if mr == nil || n == nil || mr.WebURL == "" {
		return ""
	}
	return fmt.Sprintf("%s#note_%d", mr.WebURL, n.ID)
}

func mergeRequestEndpoint(projectID int, iid string) string {
	return "/projects/" + strconv.Itoa(projectID) + "/merge_requests/" + url.PathEscape(strings.TrimSpace(iid))
}

func withResource(err error, kind, id string) error {
	if classified, ok := errors.AsClassified(err); ok {
		return classified.WithContext(kind, id)
	}
	return err
}

package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/markdown"
	"git.home.luguber.info/inful/previewnote/internal/testforge"
)

func newForge(t *testing.T) *testforge.TestForge {
	t.Helper()
	tf := testforge.New(t, "token")
	p := tf.AddProject(5, "espressif/docs")
	tf.AddMergeRequest(p, 12, "Update errata")
	return tf
}

func notePosts(tf *testforge.TestForge) []string {
	var bodies []string
	for _, n := range tf.Notes() {
		bodies = append(bodies, n.Body)
	}
	return bodies
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc-url.txt")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(logFile string) *config.Config {
	cfg := config.Default()
	cfg.LogFile = logFile
	return cfg
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)) }

func TestRun_PostsFormattedNote(t *testing.T) {
	tf := newForge(t)
	logFile := writeLog(t,
		"building docs...",
		"[document preview][en_esp32s3][http://x/en]",
		"[document preview][zh_CN_esp32s3][http://x/zh]",
		"[document preview][en_esp32c3][http://x/c3]",
	)

	summary, err := Run(context.Background(), Options{
		Config:       testConfig(logFile),
		Token:        "token",
		Project:      "espressif/docs",
		MergeRequest: "12",
		GitLabURL:    tf.URL(),
		Logger:       quietLogger(),
		HTTPClient:   tf.Client(),
		RunID:        "run-123",
	})
	require.NoError(t, err)

	want := "Documentation preview:\n\n" +
		"- ESP32-S3 [勘误表](http://x/zh)/[Errata](http://x/en)\n" +
		"- ESP32-C3 勘误表/[Errata](http://x/c3)\n"
	assert.Equal(t, []string{want}, notePosts(tf))
	assert.Equal(t, want, summary.Note)
	assert.Equal(t, "https://gitlab.example.com/espressif/docs/-/merge_requests/12#note_1", summary.Published.URL)
	reqs := tf.Requests()
	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, "run-123", r.RequestID)
	}
	assert.Contains(t, summary.Describe(), "#note_1")
}

func TestRun_EmptyLogPostsHeaderOnly(t *testing.T) {
	tf := newForge(t)

	summary, err := Run(context.Background(), Options{
		Config:       testConfig(writeLog(t)),
		Token:        "token",
		Project:      "espressif/docs",
		MergeRequest: "12",
		GitLabURL:    tf.URL() + "/api/v4",
		Logger:       quietLogger(),
		HTTPClient:   tf.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Documentation preview:\n\n"}, notePosts(tf))
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_MissingLogFileMakesNoRequests(t *testing.T) {
	tf := newForge(t)

	_, err := Run(context.Background(), Options{
		Config:       testConfig(filepath.Join(t.TempDir(), "missing.txt")),
		Token:        "token",
		Project:      "espressif/docs",
		MergeRequest: "12",
		GitLabURL:    tf.URL(),
		Logger:       quietLogger(),
		HTTPClient:   tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	assert.Empty(t, tf.Requests())
	assert.Empty(t, tf.Notes())
}

func TestRun_StrictMalformedAbortsBeforePosting(t *testing.T) {
	tf := newForge(t)
	cfg := testConfig(writeLog(t,
		"[document preview][en_esp32s3][http://x/en]",
		"[document preview][garbage][http://x/bad]",
	))
	cfg.Malformed = config.MalformedFail

	_, err := Run(context.Background(), Options{
		Config: cfg, Token: "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Empty(t, tf.Notes())
}

func TestRun_AuthFailure(t *testing.T) {
	tf := newForge(t)

	_, err := Run(context.Background(), Options{
		Config: testConfig(writeLog(t, "[document preview][en_esp32s3][http://x/en]")),
		Token:  "wrong", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
	assert.Empty(t, tf.Notes())
}

func TestRun_UnknownMergeRequest(t *testing.T) {
	tf := newForge(t)

	_, err := Run(context.Background(), Options{
		Config: testConfig(writeLog(t)), Token: "token", Project: "espressif/docs", MergeRequest: "999",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Empty(t, tf.Notes())
}

func TestRun_DryRunDoesNotContactGitLab(t *testing.T) {
	tf := newForge(t)

	summary, err := Run(context.Background(), Options{
		Config: testConfig(writeLog(t, "[document preview][en_esp32h2][http://x/h2]")),
		Token:  "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(), DryRun: true,
	})
	require.NoError(t, err)
	assert.Contains(t, summary.Note, "- ESP32-H2 勘误表/[Errata](http://x/h2)")
	assert.Nil(t, summary.Published)
	assert.Empty(t, tf.Requests())
	assert.Equal(t, []markdown.Link{{Text: "Errata", Destination: "http://x/h2"}}, summary.NoteLinks)
	assert.Equal(t, "Preview note not posted (1 series, 1 links)", summary.Describe())
}

func TestRun_InvalidRetryPolicyIsConfigError(t *testing.T) {
	tf := newForge(t)
	cfg := testConfig(writeLog(t, "[document preview][en_esp32h2][http://x/h2]"))
	cfg.Retry.Initial = 0

	_, err := Run(context.Background(), Options{
		Config: cfg,
		Token:  "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Empty(t, tf.Requests())
}

func TestRun_VerifiesLinksAndPushesMetrics(t *testing.T) {
	tf := newForge(t)

	preview := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(preview.Close)

	var (
		pushMu    sync.Mutex
		pushPaths []string
		pushBody  string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		pushMu.Lock()
		pushPaths = append(pushPaths, r.URL.Path)
		pushBody = buf.String()
		pushMu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	cfg := testConfig(writeLog(t,
		"[document preview][en_esp32s3]["+preview.URL+"/en]",
		"[document preview][zh_CN_esp32s3]["+preview.URL+"/missing]",
	))
	cfg.LinkVerification.Enabled = true
	cfg.Metrics.PushgatewayURL = gateway.URL

	summary, err := Run(context.Background(), Options{
		Config: cfg, Token: "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.NoError(t, err)
	require.Len(t, summary.Links, 2)
	assert.False(t, summary.Links[0].OK(), "zh link is rendered first")
	assert.True(t, summary.Links[1].OK())
	assert.Len(t, notePosts(tf), 1, "broken preview links never block posting")

	pushMu.Lock()
	defer pushMu.Unlock()
	require.Len(t, pushPaths, 1)
	assert.True(t, strings.HasPrefix(pushPaths[0], "/metrics/job/previewnote"))
	assert.NotEmpty(t, pushBody)
}

func TestRender(t *testing.T) {
	cfg := testConfig(writeLog(t,
		"[document preview][en_esp32c6][http://x/c6]",
		"[document preview][zh_CN_esp32p4][http://x/p4]",
	))

	var md bytes.Buffer
	require.NoError(t, Render(context.Background(), cfg, false, &md, quietLogger()))
	assert.Equal(t, "Documentation preview:\n\n"+
		"- ESP32-C6 勘误表/[Errata](http://x/c6)\n"+
		"- ESP32P4 [勘误表](http://x/p4)/Errata\n", md.String())

	var html bytes.Buffer
	require.NoError(t, Render(context.Background(), cfg, true, &html, quietLogger()))
	assert.Contains(t, html.String(), `<a href="http://x/c6">Errata</a>`)
	assert.Contains(t, html.String(), "<ul>")
}

func TestRender_MissingFile(t *testing.T) {
	err := Render(context.Background(), testConfig(filepath.Join(t.TempDir(), "nope")), false, &bytes.Buffer{}, quietLogger())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestRun_RetriesTransientLookupFailures(t *testing.T) {
	tf := newForge(t)
	tf.SetFailMode(testforge.FailModeServer, 2)

	cfg := testConfig(writeLog(t, "[document preview][en_esp32s3][http://x/en]"))
	cfg.Retry.MaxRetries = 2
	cfg.Retry.Initial = time.Millisecond
	cfg.Retry.Max = time.Millisecond

	_, err := Run(context.Background(), Options{
		Config: cfg, Token: "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.NoError(t, err)
	assert.Len(t, tf.Notes(), 1)
	assert.Len(t, tf.Requests(), 5)
}

func TestRun_DefaultPolicySingleAttempt(t *testing.T) {
	tf := newForge(t)
	tf.SetFailMode(testforge.FailModeServer, 1)

	_, err := Run(context.Background(), Options{
		Config: testConfig(writeLog(t)), Token: "token", Project: "espressif/docs", MergeRequest: "12",
		GitLabURL: tf.URL(), Logger: quietLogger(), HTTPClient: tf.Client(),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryForge))
	assert.Len(t, tf.Requests(), 1)
	assert.Empty(t, tf.Notes())
}

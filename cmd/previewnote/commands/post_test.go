package commands

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

func TestPostCmd_ApplyOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Retry.MaxRetries = 2

	p := &PostCmd{
		LogFile:        "build/preview.txt",
		Strict:         true,
		Insecure:       true,
		VerifyLinks:    true,
		Retries:        4,
		Timeout:        5 * time.Second,
		PushgatewayURL: "http://pushgateway:9091",
	}
	require.NoError(t, p.apply(cfg))

	assert.Equal(t, "build/preview.txt", cfg.LogFile)
	assert.Equal(t, config.MalformedFail, cfg.Malformed)
	assert.True(t, cfg.GitLab.InsecureSkipVerify)
	assert.True(t, cfg.LinkVerification.Enabled)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.GitLab.Timeout)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
}

func TestPostCmd_UnsetFlagsKeepConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Retry.MaxRetries = 2
	cfg.GitLab.InsecureSkipVerify = true

	require.NoError(t, (&PostCmd{Retries: -1}).apply(cfg))

	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.True(t, cfg.GitLab.InsecureSkipVerify)
	assert.Equal(t, config.DefaultLogFile, cfg.LogFile)
	assert.Equal(t, config.MalformedSkip, cfg.Malformed)
}

func TestPostCmd_MalformedPolicy(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, (&PostCmd{Retries: -1, Malformed: "FAIL"}).apply(cfg))
	assert.Equal(t, config.MalformedFail, cfg.Malformed)

	err := (&PostCmd{Retries: -1, Malformed: "explode"}).apply(config.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestCLI_LoadConfigAppliesLoggingFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	var stderr bytes.Buffer
	g := &Global{Stderr: &stderr, EnvFiles: []string{".env"}}
	c := &CLI{Verbose: true, LogFormat: "json"}
	require.NoError(t, c.AfterApply(g))

	cfg, err := c.LoadConfig(g)
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)

	g.Logger.Debug("after load", slog.String("k", "v"))
	assert.Contains(t, stderr.String(), `"msg":"Loaded environment files"`)
	assert.Contains(t, stderr.String(), `"msg":"after load"`)
}

func TestPostCmd_HelpDescribesTagForms(t *testing.T) {
	var cli CLI
	var out bytes.Buffer
	parser, err := kong.New(&cli,
		kong.Vars{"version": "test"},
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.Bind(&Global{Stdout: &out, Stderr: &out}))
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"post", "--help"})
	help := out.String()
	assert.Contains(t, help, "--malformed")
	assert.Contains(t, help, "[chipseries]")
	assert.Contains(t, help, "[zh_CN_<series>]")
}

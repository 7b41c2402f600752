package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/observability"
)

// Global is shared state bound into every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
	// HTTPClient overrides the GitLab transport (tests).
	HTTPClient *http.Client
	// EnvFiles are the .env files loaded before parsing.
	EnvFiles []string
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Optional YAML configuration file" type:"path" env:"PREVIEWNOTE_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json); overrides the config file"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Post   PostCmd   `cmd:"" default:"withargs" help:"Post the documentation preview note to a merge request"`
	Render RenderCmd `cmd:"" help:"Print the note built from the preview log without contacting GitLab"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = observability.NewLogger(g.Stderr, level, c.LogFormat)
	slog.SetDefault(g.Logger)
	return nil
}

// LoadConfig loads the optional config file, then rebuilds the logger from the
// merged logging settings. Flags win over the file.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = config.NormalizeLogFormat(c.LogFormat)
	}

	g.Logger = observability.NewLogger(g.Stderr, observability.ParseLevel(string(cfg.Logging.Level)), string(cfg.Logging.Format))
	slog.SetDefault(g.Logger)

	if len(g.EnvFiles) > 0 {
		g.Logger.Debug("Loaded environment files", slog.Any("files", g.EnvFiles))
	}
	if c.Config != "" {
		g.Logger.Debug("Loaded configuration", slog.String("path", c.Config))
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

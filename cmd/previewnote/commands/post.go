package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/app"
	"git.home.luguber.info/inful/previewnote/internal/config"
)

// PostCmd implements the default 'post' command.
type PostCmd struct {
	Authkey      string `arg:"" help:"GitLab access token"`
	Project      string `arg:"" help:"Project path, e.g. espressif/esp-docs"`
	MergeRequest string `arg:"" name:"mr_iid" help:"Merge request IID"`

	URL            string        `name:"url" required:"" env:"CI_SERVER_URL" help:"GitLab instance URL"`
	LogFile        string        `name:"log-file" help:"Preview log to scan (default logs/doc-url.txt)"`
	Strict         bool          `help:"Abort on malformed preview lines instead of skipping them"`
	Malformed      string        `help:"Malformed line policy (skip|fail); --strict implies fail. Tags must be [en_<series>] or [zh_CN_<series>]; a bare [chipseries] tag is malformed"`
	Insecure       bool          `help:"Disable TLS certificate verification"`
	VerifyLinks    bool          `name:"verify-links" help:"Probe preview URLs before posting (warnings only)"`
	Retries        int           `default:"-1" help:"Retries for project and merge request lookups (-1 uses config)"`
	Timeout        time.Duration `help:"GitLab API timeout (0 uses config)"`
	PushgatewayURL string        `name:"pushgateway-url" env:"PREVIEWNOTE_PUSHGATEWAY_URL" help:"Push run metrics to this Prometheus Pushgateway"`
	DryRun         bool          `name:"dry-run" help:"Build the note but do not post it"`
}

func (p *PostCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if err := p.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := app.Run(ctx, app.Options{
		Config:       cfg,
		Token:        p.Authkey,
		Project:      p.Project,
		MergeRequest: p.MergeRequest,
		GitLabURL:    p.URL,
		DryRun:       p.DryRun,
		Logger:       g.Logger,
		HTTPClient:   g.HTTPClient,
	})
	if err != nil {
		return err
	}

	if p.DryRun {
		_, _ = fmt.Fprint(g.Stdout, summary.Note)
		return nil
	}
	_, _ = fmt.Fprintln(g.Stdout, summary.Describe())
	return nil
}

// apply overrides config values with flags that were set.
func (p *PostCmd) apply(cfg *config.Config) error {
	if p.LogFile != "" {
		cfg.LogFile = p.LogFile
	}
	if p.Malformed != "" {
		policy, err := config.ParseMalformedPolicy(p.Malformed)
		if err != nil {
			return err
		}
		cfg.Malformed = policy
	}
	if p.Strict {
		cfg.Malformed = config.MalformedFail
	}
	if p.Insecure {
		cfg.GitLab.InsecureSkipVerify = true
	}
	if p.VerifyLinks {
		cfg.LinkVerification.Enabled = true
	}
	if p.Retries >= 0 {
		cfg.Retry.MaxRetries = p.Retries
	}
	if p.Timeout > 0 {
		cfg.GitLab.Timeout = p.Timeout
	}
	if p.PushgatewayURL != "" {
		cfg.Metrics.PushgatewayURL = p.PushgatewayURL
	}
	return nil
}

package commands

import (
	"git.home.luguber.info/inful/previewnote/internal/app"
	"git.home.luguber.info/inful/previewnote/internal/config"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	LogFile string `name:"log-file" help:"Preview log to scan (default logs/doc-url.txt)"`
	Strict  bool   `help:"Abort on malformed preview lines instead of skipping them"`
	HTML    bool   `name:"html" help:"Print the HTML rendering instead of markdown"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if r.LogFile != "" {
		cfg.LogFile = r.LogFile
	}
	if r.Strict {
		cfg.Malformed = config.MalformedFail
	}

	ctx, cancel := signalContext()
	defer cancel()
	return app.Render(ctx, cfg, r.HTML, g.Stdout, g.Logger)
}

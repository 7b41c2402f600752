package main

import (
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/previewnote/cmd/previewnote/commands"
	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
	"git.home.luguber.info/inful/previewnote/internal/observability"
	"git.home.luguber.info/inful/previewnote/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, stdout, stderr io.Writer, httpClient *http.Client) int {
	var cli commands.CLI
	globals := &commands.Global{Stdout: stdout, Stderr: stderr, HTTPClient: httpClient}

	// .env values back env-tagged flags such as --url, so load them first.
	code := 0
	envFiles, err := config.LoadEnvFiles()
	if err != nil {
		errors.NewCLIErrorAdapter(false, observability.NewLogger(stderr, slog.LevelInfo, "")).
			WithOutput(stderr).
			WithExit(func(c int) { code = c }).
			HandleError(err)
		return code
	}
	globals.EnvFiles = envFiles

	parser, err := kong.New(&cli,
		kong.Name("previewnote"),
		kong.Description("Post documentation preview links from a CI log as a GitLab merge request note."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Bind(globals),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "previewnote: %v\n", err)
		return 10
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		var parseErr *kong.ParseError
		if stdErrors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(true)
		}
		_, _ = fmt.Fprintf(stderr, "previewnote: error: %v\n", err)
		return 2
	}

	if err := kctx.Run(&cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, globals.Logger).
			WithOutput(stderr).
			WithExit(func(c int) { code = c }).
			HandleError(err)
	}
	return code
}

// Command widgetctl renders and inspects README widgets without running the
// server: render a widget to a file, print its embed markdown, list themes,
// find the widgets in an existing README, and mint API tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sakif/readme-widgets/internal/config"
	"github.com/sakif/readme-widgets/internal/github"
	"github.com/sakif/readme-widgets/internal/service"
	"github.com/sakif/readme-widgets/internal/widget"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "widgetctl",
		Short:        "Render and inspect README widgets",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configFile, "config", os.Getenv("CONFIG_FILE"), "path to a YAML, TOML or JSON config file")

	root.AddCommand(
		newRenderCommand(a),
		newLinkCommand(a),
		newThemesCommand(),
		newParseCommand(),
		newTokenCommand(a),
	)
	return root
}

// widgets builds the same WidgetService the server uses.
func (a *app) widgets() (*service.WidgetService, error) {
	gh, err := github.New(github.Options{
		BaseURL:  a.cfg.GitHubBaseURL,
		Token:    a.cfg.GitHubToken,
		Timeout:  a.cfg.UpstreamTimeout,
		MaxRepos: a.cfg.GitHubMaxRepos,
		RPS:      a.cfg.GitHubRPS,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	return service.NewWidgetService(gh, a.cfg.PublicBaseURL, nil, a.logger), nil
}

// widgetArgs reads "<type> key=value ..." positional arguments.
func widgetArgs(args []string) (widget.Type, widget.Params, error) {
	t, ok := widget.ParseType(args[0])
	if !ok {
		names := make([]string, len(widget.Types))
		for i, wt := range widget.Types {
			names[i] = string(wt)
		}
		return "", nil, fmt.Errorf("unknown widget type %q (want one of %s)", args[0], strings.Join(names, ", "))
	}
	params := make(widget.Params, len(args)-1)
	for _, arg := range args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return "", nil, fmt.Errorf("parameter %q is not key=value", arg)
		}
		params[key] = value
	}
	return t, params, nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/auth"
	"github.com/sakif/readme-widgets/internal/markdown"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

func newRenderCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <type> [key=value ...]",
		Short: "Render a widget to SVG",
		Long: `Render a widget to SVG, fetching GitHub data when the widget needs it.

The SVG goes to stdout unless --output names a file. Files are replaced
atomically, so a README build never sees a half-written image.`,
		Example: `  widgetctl render github-stats username=octocat theme=dracula -o stats.svg
  widgetctl render wave-banner text="Hi there" > banner.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, params, err := widgetArgs(args)
			if err != nil {
				return err
			}
			svc, err := a.widgets()
			if err != nil {
				return err
			}
			cfg, notes, err := svc.Prepare(t, params)
			for _, note := range notes {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", note)
			}
			if err != nil {
				return errors.New(apperror.UserMessage(err))
			}

			art, err := svc.Render(cmd.Context(), cfg)
			if err != nil {
				return errors.New(apperror.UserMessage(err))
			}
			for _, w := range art.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Field, w.Kind)
			}

			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), art.SVG)
				return err
			}
			if err := atomic.WriteFile(output, strings.NewReader(art.SVG)); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", output, humanize.Bytes(uint64(len(art.SVG))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the SVG to this file instead of stdout")
	return cmd
}

func newLinkCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link <type> [key=value ...]",
		Short: "Print the embed URL and markdown for a widget",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, params, err := widgetArgs(args)
			if err != nil {
				return err
			}
			svc, err := a.widgets()
			if err != nil {
				return err
			}
			cfg, notes, err := svc.Prepare(t, params)
			for _, note := range notes {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", note)
			}
			if err != nil {
				return errors.New(apperror.UserMessage(err))
			}
			link := svc.Link(cfg)
			fmt.Fprintln(cmd.OutOrStdout(), link.URL)
			fmt.Fprintln(cmd.OutOrStdout(), link.Markdown)
			return nil
		},
	}
}

func newThemesCommand() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List themes and the widget types that accept them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if only != "" {
				if _, ok := widget.ParseType(only); !ok {
					return fmt.Errorf("unknown widget type %q", only)
				}
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Theme", "Background", "Title", "Text", "Widgets"})
			table.SetAutoWrapText(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, p := range theme.All() {
				var types []string
				for _, t := range widget.Types {
					if theme.Allowed(string(t), p.Name) {
						types = append(types, string(t))
					}
				}
				if only != "" && !theme.Allowed(only, p.Name) {
					continue
				}
				background := p.Background
				if p.HasGradient() {
					background = strings.Join(p.Gradient, " → ")
				}
				table.Append([]string{p.Name, background, p.Title, p.Text, strings.Join(types, ", ")})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "type", "", "only list themes this widget type accepts")
	return cmd
}

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <README.md | ->",
		Short: "List the widgets embedded in a markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				src []byte
				err error
			)
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			found := markdown.Parse(string(src))
			if len(found) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no widgets found")
				return nil
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Line", "Type", "Params", "Status"})
			table.SetAutoWrapText(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, p := range found {
				status := "ok"
				cfg, err := p.Config()
				if err == nil {
					err = widget.Validate(cfg)
				}
				if err != nil {
					status = apperror.UserMessage(err)
				}
				table.Append([]string{strconv.Itoa(p.Position.Line), string(p.Type), p.Params.Encode(), status})
			}
			table.Render()
			return nil
		},
	}
}

func newTokenCommand(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an API token for the write endpoints",
		Long: `Issue a bearer token signed with JWT_SECRET. The subject becomes the owner
of every project created with the token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set; the server accepts every request without a token")
			}
			tokens, err := auth.NewTokenService(a.cfg.JWTSecret)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

// cmd/cli/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/template"

	"github.com/keshon/domme-dispatch/internal/app"
	"github.com/keshon/domme-dispatch/internal/config"
	"github.com/keshon/domme-dispatch/internal/console"
	"github.com/keshon/domme-dispatch/internal/logging"
	v "github.com/keshon/domme-dispatch/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:     "domme",
		Short:   v.AppDescription,
		Version: v.Version,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default: .env if present)")

	setup := func() (*app.App, io.Closer, error) {
		var dotenv []string
		if envFile != "" {
			dotenv = append(dotenv, envFile)
		}
		cfg, err := config.New(dotenv...)
		if err != nil {
			return nil, nil, err
		}
		logger, closer, err := logging.New(logging.Options{App: "cli", Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr})
		if err != nil {
			return nil, nil, err
		}
		a, err := app.New(cfg, logger)
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		return a, closer, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Read commands from stdin, one line per message, sub-messages separated by " + console.Separator,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				a, closer, err := setup()
				if err != nil {
					return err
				}
				defer closer.Close()
				defer a.Close()
				return console.New(c.OutOrStdout()).Serve(c.Context(), c.InOrStdin(), a.Runner)
			},
		},
		&cobra.Command{
			Use:   "exec <message>",
			Short: "Handle a single message",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				a, closer, err := setup()
				if err != nil {
					return err
				}
				defer closer.Close()
				defer a.Close()
				a.Runner.Handle(c.Context(), console.New(c.OutOrStdout()).Envelope(strings.Join(args, " ")))
				return nil
			},
		},
		newCommandsCmd(setup),
	)
	return root
}

const markdownTemplate = `### Commands
{{range .}}
* **` + "`{{.Name}}`" + `**{{if .Description}}
  {{.Description}}{{end}}
{{end}}`

type helpEntry struct {
	Name        string
	Description string
}

func newCommandsCmd(setup func() (*app.App, io.Closer, error)) *cobra.Command {
	var aliases, markdown bool
	c := &cobra.Command{
		Use:   "commands",
		Short: "List registered commands",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, closer, err := setup()
			if err != nil {
				return err
			}
			defer closer.Close()
			defer a.Close()

			lines := a.Registry.Help()
			if aliases {
				lines = a.Registry.HelpWithAliases()
			}
			if !markdown {
				for _, line := range lines {
					fmt.Fprintln(c.OutOrStdout(), line)
				}
				return nil
			}

			entries := make([]helpEntry, len(lines))
			for i, line := range lines {
				name, desc, _ := strings.Cut(line, " - ")
				entries[i] = helpEntry{Name: name, Description: desc}
			}
			tmpl := template.Must(template.New("commands").Parse(markdownTemplate))
			return tmpl.Execute(c.OutOrStdout(), entries)
		},
	}
	c.Flags().BoolVar(&aliases, "aliases", false, "include aliases")
	c.Flags().BoolVar(&markdown, "markdown", false, "render as a markdown section")
	return c
}

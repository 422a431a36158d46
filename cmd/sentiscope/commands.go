package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/app"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/terminal"
)

type cli struct {
	apiURL    string
	assumeYes bool

	client *clients.SentimentAPIClient
	app    *app.App
	in     *bufio.Reader
}

func rootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "sentiscope",
		Short:         "Analyze text sentiment and browse past analyses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Analysis service URL (overrides SENTISCOPE_API_URL)")
	cmd.PersistentFlags().BoolVarP(&c.assumeYes, "yes", "y", false, "Answer yes to every confirmation")

	cmd.AddCommand(
		c.analyzeCmd(),
		c.historyCmd(),
		c.shellCmd(),
		c.healthCmd(),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	config.LoadEnv(config.AppEnv())
	cfg, err := config.LoadClientConfig()
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
		err = cfg.Validate()
	}
	logging.InitLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.client = clients.NewSentimentAPIClient(clients.SentimentAPIConfig{
		BaseURL:      cfg.APIURL,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		HistoryLimit: cfg.HistoryLimit,
	})
	out := cmd.OutOrStdout()
	c.in = bufio.NewReader(cmd.InOrStdin())
	c.app = app.New(c.client, terminal.NewPresenter(out), terminal.NewPrompt(c.in, out, c.assumeYes))
	return nil
}

func (c *cli) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Classify the sentiment of text (read from stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(c.in)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}
			_, err := c.app.Submit(cmd.Context(), text)
			return shown(err)
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
		return shown(c.app.Refresh(cmd.Context()))
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, view, delete, clear or search past analyses",
		RunE:  list,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List past analyses, newest first",
			RunE:  list,
		},
		&cobra.Command{
			Use:   "view ID",
			Short: "Show a past analysis",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := c.app.View(cmd.Context(), models.AnalysisID(args[0]))
				return shown(err)
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a past analysis",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := c.app.Delete(cmd.Context(), models.AnalysisID(args[0]))
				return c.confirmedOutcome(cmd, err)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every past analysis",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Start(cmd.Context()); err != nil {
					return shown(err)
				}
				result, err := c.app.ClearAll(cmd.Context())
				if err == nil && result.Attempted > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d analyses.\n", len(result.Deleted), result.Attempted)
				}
				return c.confirmedOutcome(cmd, err)
			},
		},
		&cobra.Command{
			Use:   "search TEXT",
			Short: "Search past analyses by text",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := c.app.Search(cmd.Context(), strings.Join(args, " "))
				return shown(err)
			},
		},
	)
	return cmd
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive analysis session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Start(cmd.Context()); err != nil {
				slog.Warn("[CLI] Starting without history", slog.String("error", err.Error()))
			}
			return c.app.RunShell(cmd.Context(), c.in, cmd.OutOrStdout())
		},
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := c.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("service unavailable: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", health.Status, health.Message)
			return nil
		},
	}
}

func (c *cli) confirmedOutcome(cmd *cobra.Command, err error) error {
	if errors.Is(err, models.ErrNotConfirmed) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	return shown(err)
}

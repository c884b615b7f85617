// Package cli implements the resumerag command line.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"resumerag/internal/app"
	"resumerag/internal/config"
	"resumerag/internal/logger"
	"resumerag/internal/presenter"
)

var (
	cfgPath  string
	verbose  bool
	jsonLogs bool

	// cfg is loaded before any subcommand runs.
	cfg *config.AppConfig

	// startApp loads the record and builds the index. Tests replace it.
	startApp = app.Start

	// stdinIsTerminal decides between the TUI and line mode for the bare command.
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var rootCmd = &cobra.Command{
	Use:   "resumerag",
	Short: "Ask questions about a resume",
	Long: `resumerag answers free-text questions about a structured resume by
retrieving its most relevant fragments: employment highlights, skill
categories and projects.

Run without a subcommand to open the interactive assistant, or pipe
questions on stdin to answer one per line.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML or TOML config (default ./config.yaml or ~/.config/resumerag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(jsonLogs)
	logger.SetOutput(cmd.ErrOrStderr())

	var err error
	if cfgPath == "" {
		var path string
		cfg, path, err = config.LoadDefault()
		logger.Debug("config resolved", "path", path)
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if stdinIsTerminal() {
		return runTUI(cmd, args)
	}
	ctx := cmd.Context()
	a, err := startApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return answerLines(ctx, cmd, a)
}

// answerLines answers each non-empty stdin line in turn.
func answerLines(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	first := true
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if !first {
			fmt.Fprintln(cmd.OutOrStdout(), "---")
		}
		first = false
		fmt.Fprintf(cmd.OutOrStdout(), "Q: %s\n", q)
		if err := answer(ctx, cmd, a, q); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func answer(ctx context.Context, cmd *cobra.Command, a *app.App, q string) error {
	intent, ans, err := a.Ask(ctx, q, 0)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if intent == presenter.IntentDownload {
		fmt.Fprintf(cmd.OutOrStdout(), "Resume document: %s\n", a.Config().Record.Document)
		return nil
	}
	return presenter.Render(cmd.OutOrStdout(), ans, presenter.PlainStyles(), false)
}

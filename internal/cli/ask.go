package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"resumerag/internal/presenter"
)

var (
	askTop  int
	askJSON bool
	askMeta bool
	askOut  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the resume",
	Long: `Embeds the question, searches the resume index and prints the most
relevant fragment followed by related matches.

Questions mentioning the resume or CV return the resume document instead;
use --out to copy it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTop, "top", "k", 0, "number of results (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askMeta, "meta", false, "show unit metadata")
	askCmd.Flags().StringVarP(&askOut, "out", "o", "", "copy the resume document here for download requests")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")
	ctx := cmd.Context()
	a, err := startApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	intent, ans, err := a.Ask(ctx, q, askTop)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if intent == presenter.IntentDownload {
		return downloadResume(cmd, a.Config().Record.Document)
	}
	if askJSON {
		data, err := json.MarshalIndent(ans, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	st := presenter.PlainStyles()
	if stdoutIsTerminal() {
		st = presenter.TerminalStyles()
	}
	return presenter.Render(cmd.OutOrStdout(), ans, st, askMeta)
}

func downloadResume(cmd *cobra.Command, document string) error {
	if askOut == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Resume document: %s\n", document)
		return nil
	}
	src, err := os.Open(document)
	if err != nil {
		return fmt.Errorf("resume document not available: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(askOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", askOut, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy resume: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resume saved to %s\n", askOut)
	return nil
}

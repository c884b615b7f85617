package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"resumerag/internal/tui"
)

var tuiWatch bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive resume assistant",
	Long: `Launch the interactive terminal assistant.

Controls:
  Enter    - Ask
  ↑/↓      - Browse the answer and related matches
  Esc      - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiWatch, "watch", false, "rebuild when the resume file changes")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a, err := startApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if tuiWatch || cfg.Watch.Enabled {
		startWatcher(ctx, a)
	}

	info := tui.Info{
		Document: cfg.Record.Document,
		K:        cfg.Query.K,
	}
	_, err = tea.NewProgram(tui.New(a, info), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func stdoutIsTerminal() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resumerag/internal/presenter"
	"resumerag/internal/service"
)

var unitsJSON bool

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the retrievable units built from the resume",
	Args:  cobra.NoArgs,
	RunE:  runUnits,
}

func init() {
	unitsCmd.Flags().BoolVar(&unitsJSON, "json", false, "output units as JSON")
	rootCmd.AddCommand(unitsCmd)
}

func runUnits(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := startApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	units, err := a.Pipeline().Units()
	if err != nil {
		return err
	}
	views := make([]presenter.UnitView, len(units))
	for i, u := range units {
		views[i] = presenter.View(service.Result{Unit: u})
	}
	if unitsJSON {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal units: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	gen, _ := a.Pipeline().Generation()
	fmt.Fprintf(cmd.OutOrStdout(), "%d units (embedder=%s, dimension=%d)\n\n", gen.Units, gen.Embedder, gen.Dimension)
	for i, v := range views {
		firstLine, _, _ := strings.Cut(v.Text, "\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %-10s %s\n", i, v.Kind, firstLine)
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/charts"
	"github.com/ramonehamilton/booster-companion/internal/draw"
)

func (a *app) simulateCmd() *cobra.Command {
	var (
		draws   int
		seed    uint64
		output  string
		browser bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Draw many cards offline and compare rarity frequencies to the configured weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if draws <= 0 {
				return fmt.Errorf("draws must be positive")
			}
			cat := catalog.Default()
			var (
				engine *draw.Engine
				err    error
			)
			if cmd.Flags().Changed("seed") {
				engine, err = draw.NewSeeded(cat, seed)
			} else {
				engine, err = draw.New(cat, nil)
			}
			if err != nil {
				return err
			}

			dist := engine.Simulate(draws)
			header(a.out, fmt.Sprintf("%d draws", dist.Draws))
			for _, tier := range dist.Tiers {
				fmt.Fprintf(a.out, "  %-11s weight %6.2f%%  observed %6.2f%%  (%d)\n",
					tier.Rarity, tier.Weight*100, tier.Observed*100, tier.Count)
			}

			if output == "" && !browser {
				return nil
			}
			if output == "" {
				output = filepath.Join(os.TempDir(), "booster-rarity.html")
			}
			if err := charts.WriteFile(output, func(w io.Writer) error {
				return charts.RenderRarityChart(dist, charts.DefaultChartConfig(), w)
			}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Chart written to %s\n", output)
			if browser {
				return charts.OpenInBrowser(output)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&draws, "draws", "n", 100_000, "Number of draws")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible run")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write an HTML chart to this file")
	cmd.Flags().BoolVar(&browser, "open", false, "Open the chart in a browser")
	return cmd
}

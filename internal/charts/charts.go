// Package charts renders economy statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/booster-companion/internal/draw"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Smooth     bool     // Smooth line (for line charts)
	Colors     []string // Custom colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Smooth:     true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE"},
	}
}

func globalOptions(config ChartConfig) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

// RenderRarityChart writes a grouped bar chart comparing configured draw weights
// with the frequencies observed in a simulation. Values are percentages.
func RenderRarityChart(dist draw.Distribution, config ChartConfig, w io.Writer) error {
	if len(dist.Tiers) == 0 {
		return fmt.Errorf("no rarity tiers to chart")
	}
	if config.Title == "" {
		config.Title = "Rarity Distribution"
	}
	if config.Subtitle == "" {
		config.Subtitle = fmt.Sprintf("%d simulated draws", dist.Draws)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(config)...)

	labels := make([]string, len(dist.Tiers))
	configured := make([]opts.BarData, len(dist.Tiers))
	observed := make([]opts.BarData, len(dist.Tiers))
	for i, tier := range dist.Tiers {
		labels[i] = tier.Rarity.String()
		configured[i] = opts.BarData{Value: tier.Weight * 100}
		observed[i] = opts.BarData{Value: tier.Observed * 100}
	}

	bar.SetXAxis(labels).
		AddSeries("Configured %", configured).
		AddSeries("Observed %", observed).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderHistoryChart writes a line chart of one audited field over time.
// Changes may arrive in any order; they are plotted oldest first.
func RenderHistoryChart(changes []*storage.EconomyChange, field string, config ChartConfig, w io.Writer) error {
	var points []*storage.EconomyChange
	for _, c := range changes {
		if c.Field == field {
			points = append(points, c)
		}
	}
	if len(points) == 0 {
		return fmt.Errorf("no history for %s", field)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CreatedAt.Before(points[j].CreatedAt)
	})
	if config.Title == "" {
		config.Title = "History: " + field
	}

	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(config)...)

	labels := make([]string, len(points))
	values := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.CreatedAt.Format("Jan 2 15:04")
		values[i] = opts.LineData{Value: p.NewValue}
	}

	line.SetXAxis(labels).
		AddSeries(field, values).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(config.Smooth),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WriteFile renders into a new file at outputPath.
func WriteFile(outputPath string, render func(io.Writer) error) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return render(f)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

var rarityColors = map[catalog.Rarity]*color.Color{
	catalog.Common:    color.New(color.FgWhite),
	catalog.Rare:      color.New(color.FgBlue),
	catalog.Epic:      color.New(color.FgMagenta),
	catalog.Legendary: color.New(color.FgYellow),
	catalog.UltraRare: color.New(color.FgRed, color.Bold),
}

// cardLabel renders a card as "#12 Tide Crab (rare)" colored by rarity.
func cardLabel(card catalog.CardDefinition) string {
	c, ok := rarityColors[card.Rarity]
	if !ok {
		return card.String()
	}
	return c.Sprintf("#%d %s (%s)", card.CatalogNumber, card.Name, card.Rarity)
}

func coins(n int) string {
	return color.YellowString("%d coins", n)
}

// formatRemaining renders a cooldown as "5h 59m 3s", dropping leading zero units.
func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}

func header(w io.Writer, title string) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint(title))
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/collection"
)

func (a *app) collectionCmd() *cobra.Command {
	var rarity string
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "List owned cards and per-rarity progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *catalog.Rarity
			if rarity != "" {
				r, err := catalog.ParseRarity(rarity)
				if err != nil {
					return err
				}
				filter = &r
			}

			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				entries, err := s.svc.Collection()
				if err != nil {
					return err
				}
				a.printEntries(entries, filter)

				progress, err := s.svc.Progress()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out)
				fmt.Fprintf(a.out, "%s %d%% (%d/%d)\n", progressBar(progress.Percent, 20), progress.Percent, progress.Owned, progress.Total)
				for _, tier := range progress.Tiers {
					fmt.Fprintf(a.out, "  %-11s %d/%d\n", tier.Rarity, tier.Owned, tier.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rarity, "rarity", "", "Only show one rarity (common, rare, epic, legendary, ultra_rare)")
	return cmd
}

func (a *app) printEntries(entries []collection.Entry, filter *catalog.Rarity) {
	shown := 0
	for _, e := range entries {
		if filter != nil && e.Card.Rarity != *filter {
			continue
		}
		fmt.Fprintf(a.out, "  %3dx %s\n", e.Count, cardLabel(e.Card))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "  No cards yet. Open a booster!")
	}
}

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [query]",
		Short: "Browse or fuzzy-search the card catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			cards := cat.All()
			if len(args) == 1 {
				cards = cat.Search(args[0])
			}
			if len(cards) == 0 {
				fmt.Fprintln(a.out, "No matching cards.")
				return nil
			}
			for _, c := range cards {
				fmt.Fprintf(a.out, "  %s  sells for %s\n", cardLabel(c), coins(c.SellValue()))
			}
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to coins, boosters and the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				changes, err := s.svc.History(ctx, limit)
				if err != nil {
					return err
				}
				for _, c := range changes {
					delta := color.GreenString("%+d", c.Delta)
					if c.Delta < 0 {
						delta = color.RedString("%+d", c.Delta)
					}
					fmt.Fprintf(a.out, "  %s  %-14s %6d -> %-6d %s  %s\n",
						c.CreatedAt.Local().Format(time.DateTime), c.Field, c.PreviousValue, c.NewValue, delta, c.Source)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of changes to show")
	return cmd
}

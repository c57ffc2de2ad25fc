package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/economy"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show boosters, coins, the cooldown and collection progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				st, err := s.svc.Status()
				if err != nil {
					return err
				}
				a.printStatus(st)
				return nil
			})
		},
	}
}

func (a *app) printStatus(st economy.Status) {
	header(a.out, "Booster Companion")
	fmt.Fprintf(a.out, "  %-14s %s\n", "Free boosters:", color.GreenString("%d", st.FreeBoosters))
	fmt.Fprintf(a.out, "  %-14s %s\n", "Coins:", coins(st.Currency))
	if st.Remaining > 0 {
		fmt.Fprintf(a.out, "  %-14s %s (skip for %s)\n", "Next booster:", formatRemaining(st.Remaining), coins(st.SkipCost))
	} else {
		fmt.Fprintf(a.out, "  %-14s %s\n", "Next booster:", color.GreenString("ready"))
	}
	fmt.Fprintf(a.out, "  %-14s %s %d%% (%d/%d unique, %d copies)\n", "Collection:",
		progressBar(st.Percent, 20), st.Percent, st.Owned, st.CatalogSize, st.TotalCopies)
	if len(st.Milestones) > 0 {
		fmt.Fprintf(a.out, "  %-14s %v\n", "Milestones:", st.Milestones)
	}
	if st.TamperDetected {
		fmt.Fprintln(a.out, color.YellowString("  Clock tampering detected; the timer was reset."))
	}
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [count]",
		Short: "Open free boosters (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid count %q", args[0])
				}
				count = n
			}

			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				results, err := s.svc.OpenBoosters(ctx, count)
				for _, r := range results {
					tag := ""
					if r.IsNew {
						tag = color.GreenString(" NEW")
					}
					fmt.Fprintf(a.out, "  %s%s\n", cardLabel(r.Card), tag)
					for _, threshold := range r.Milestones {
						fmt.Fprintf(a.out, "  %s %d%% of the catalog collected!\n", color.CyanString("Milestone:"), threshold)
					}
				}
				if errors.Is(err, economy.ErrNoBoosters) {
					fmt.Fprintf(a.out, "Opened %d of %d; no free boosters left.\n", len(results), count)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%d free boosters left.\n", results[len(results)-1].FreeBoosters)
				return nil
			})
		},
	}
}

func (a *app) sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <catalog-number>",
		Short: "Sell one copy of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid catalog number %q", args[0])
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.SellCard(ctx, number)
				if err != nil {
					return err
				}
				card, _ := s.svc.Catalog().ByNumber(number)
				fmt.Fprintf(a.out, "Sold %s for %s (%d left). Balance: %s\n", cardLabel(card), coins(res.Earned), res.Remaining, coins(res.Currency))
				return nil
			})
		},
	}
}

func (a *app) sellDupesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell-dupes",
		Short: "Sell every copy beyond the first of each card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.SellDuplicates(ctx)
				if err != nil {
					return err
				}
				if res.Sold == 0 {
					fmt.Fprintln(a.out, "No duplicates to sell.")
					return nil
				}
				fmt.Fprintf(a.out, "Sold %d duplicates for %s. Balance: %s\n", res.Sold, coins(res.Earned), coins(res.Currency))
				return nil
			})
		},
	}
}

func (a *app) skipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Pay coins to finish the current cooldown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.SkipWait(ctx)
				if errors.Is(err, economy.ErrNothingToSkip) {
					fmt.Fprintln(a.out, "A booster is already waiting.")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Paid %s. Free boosters: %s\n", coins(res.Cost), color.GreenString("%d", res.FreeBoosters))
				return nil
			})
		},
	}
}

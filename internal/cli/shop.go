package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
)

func (a *app) shopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "List the products on sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := purchase.NewProductSet(a.cfg.Shop.Products)
			if err != nil {
				return err
			}
			header(a.out, "Shop")
			for _, p := range products.List() {
				price := coins(p.Cost)
				if p.Kind == purchase.KindCurrencyPack {
					price = p.Price
				}
				fmt.Fprintf(a.out, "  %-14s %-20s %s\n", p.ID, p.Name, price)
			}
			return nil
		},
	}
}

func (a *app) buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <product-id>",
		Short: "Buy a booster bundle with coins or a coin pack from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.Buy(ctx, args[0])
				if reason, ok := purchase.ReasonOf(err); ok {
					return fmt.Errorf("purchase of %s failed: %s", args[0], reason)
				}
				if errors.Is(err, economy.ErrInsufficientCurrency) {
					return fmt.Errorf("not enough coins for %s", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %s (%s)\n", color.GreenString("Purchased"), res.Product.Name, res.TransactionID)
				fmt.Fprintf(a.out, "  Coins: %s  Free boosters: %d\n", coins(res.Currency), res.FreeBoosters)
				return nil
			})
		},
	}
}

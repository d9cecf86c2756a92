package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"creator-payments/internal/config"
	"creator-payments/internal/fee"
	"creator-payments/internal/payment"

	"github.com/spf13/cobra"
)

func loadCalculator() (fee.Calculator, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	opts, err := fee.ParseOptions(cfg.Fees.CommissionBase, cfg.Fees.ProviderProfiles, cfg.Fees.PlatformRates)
	if err != nil {
		return nil, nil, fmt.Errorf("fee config: %w", err)
	}
	return fee.NewCalculator(opts...), cfg, nil
}

func feesCmd() *cobra.Command {
	var (
		providerName string
		tierName     string
		currency     string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "fees [amount]",
		Short: "Show the fee breakdown for an amount in minor units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amount int64
			if _, err := fmt.Sscan(args[0], &amount); err != nil {
				return fmt.Errorf("amount must be an integer in minor units: %w", err)
			}
			p, err := payment.ParseProvider(providerName)
			if err != nil {
				return err
			}
			tier, err := payment.ParsePlanTier(tierName)
			if err != nil {
				return err
			}

			calc, _, err := loadCalculator()
			if err != nil {
				return err
			}
			b, err := calc.Calculate(amount, p, tier, currency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}

			cur := b.Currency
			fmt.Fprintf(out, "Fee breakdown (%s, %s)\n", b.Provider, b.PlanTier)
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Gross:      %s %s\n", payment.FormatMinor(b.GrossAmount, cur), cur)
			fmt.Fprintf(out, "  Provider:   %s %s\n", payment.FormatMinor(b.ProviderFee, cur), cur)
			fmt.Fprintf(out, "  Platform:   %s %s\n", payment.FormatMinor(b.PlatformCommission, cur), cur)
			fmt.Fprintf(out, "  Creator:    %s %s\n", payment.FormatMinor(b.NetEarnings, cur), cur)
			fmt.Fprintf(out, "  Share:      %.2f%%\n", b.CreatorSharePercentage)
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", string(payment.ProviderCardNetwork), "Payment provider")
	cmd.Flags().StringVarP(&tierName, "tier", "t", string(payment.PlanStandard), "Creator plan tier")
	cmd.Flags().StringVarP(&currency, "currency", "c", "INR", "ISO currency code")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and their fee profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, cfg, err := loadCalculator()
			if err != nil {
				return err
			}

			enabled := make(map[string]bool, len(cfg.EnabledProviders))
			for _, name := range cfg.EnabledProviders {
				enabled[strings.ToUpper(strings.TrimSpace(name))] = true
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-15s %-8s %-8s %-8s %s\n", "PROVIDER", "METHOD", "RATE", "FIXED", "ENABLED")
			for _, p := range payment.Providers {
				profile, ok := calc.Profile(p)
				if !ok {
					fmt.Fprintf(out, "%-15s %-8s %-8s %-8s %t\n", p, "-", "-", "-", enabled[string(p)])
					continue
				}
				fmt.Fprintf(out, "%-15s %-8s %-8s %-8d %t\n", p, profile.Method, profile.Rate.String(), profile.FixedFee, enabled[string(p)])
			}
			return nil
		},
	}
}

package fee

import (
	"fmt"
	"strconv"
	"strings"

	"creator-payments/internal/payment"

	"github.com/shopspring/decimal"
)

// ParseOptions turns config overrides into calculator options.
// Profiles are PROVIDER:rate:fixed, platform rates are TIER:rate.
func ParseOptions(commissionBase string, profiles, platformRates []string) ([]Option, error) {
	var opts []Option

	switch base := CommissionBase(commissionBase); base {
	case CommissionOnNet, CommissionOnGross:
		opts = append(opts, WithCommissionBase(base))
	case "":
	default:
		return nil, fmt.Errorf("unknown commission base %q", commissionBase)
	}

	if len(profiles) > 0 {
		defaults := DefaultProfiles()
		overrides := make(map[payment.Provider]ProviderFeeProfile, len(profiles))
		for _, raw := range profiles {
			parts := strings.Split(strings.TrimSpace(raw), ":")
			if len(parts) != 3 {
				return nil, fmt.Errorf("provider profile %q: want PROVIDER:rate:fixed", raw)
			}
			provider, err := payment.ParseProvider(parts[0])
			if err != nil {
				return nil, fmt.Errorf("provider profile %q: %w", raw, err)
			}
			rate, err := parseRate(parts[1])
			if err != nil {
				return nil, fmt.Errorf("provider profile %q: %w", raw, err)
			}
			fixed, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || fixed < 0 {
				return nil, fmt.Errorf("provider profile %q: invalid fixed fee", raw)
			}
			overrides[provider] = ProviderFeeProfile{
				Rate:     rate,
				FixedFee: fixed,
				Method:   defaults[provider].Method,
			}
		}
		opts = append(opts, WithProfiles(overrides))
	}

	if len(platformRates) > 0 {
		overrides := make(map[payment.PlanTier]decimal.Decimal, len(platformRates))
		for _, raw := range platformRates {
			tierName, rateStr, ok := strings.Cut(strings.TrimSpace(raw), ":")
			if !ok {
				return nil, fmt.Errorf("platform rate %q: want TIER:rate", raw)
			}
			tier, err := payment.ParsePlanTier(tierName)
			if err != nil {
				return nil, fmt.Errorf("platform rate %q: %w", raw, err)
			}
			rate, err := parseRate(rateStr)
			if err != nil {
				return nil, fmt.Errorf("platform rate %q: %w", raw, err)
			}
			overrides[tier] = rate
		}
		opts = append(opts, WithPlatformRates(overrides))
	}

	return opts, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %s out of range [0,1]", rate)
	}
	return rate, nil
}

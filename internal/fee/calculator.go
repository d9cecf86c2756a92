// Package fee splits a gross payment into provider fee, platform commission and
// creator earnings. All amounts are integer minor units; rates are decimals.
package fee

import (
	"fmt"
	"maps"

	"creator-payments/internal/payment"

	"github.com/shopspring/decimal"
)

type Breakdown struct {
	GrossAmount            int64            `json:"gross_amount"`
	ProviderFee            int64            `json:"provider_fee"`
	PlatformCommission     int64            `json:"platform_commission"`
	NetEarnings            int64            `json:"net_earnings"`
	CreatorSharePercentage float64          `json:"creator_share_percentage"`
	Currency               string           `json:"currency"`
	Provider               payment.Provider `json:"provider"`
	PlanTier               payment.PlanTier `json:"plan_tier"`
}

type Calculator interface {
	Calculate(gross int64, provider payment.Provider, tier payment.PlanTier, currency string) (*Breakdown, error)
	Profile(provider payment.Provider) (ProviderFeeProfile, bool)
}

type calculatorImpl struct {
	profiles       map[payment.Provider]ProviderFeeProfile
	platformRates  map[payment.PlanTier]decimal.Decimal
	commissionBase CommissionBase
}

type Option func(*calculatorImpl)

// WithProfiles replaces the entries given, keeping defaults for the others.
func WithProfiles(profiles map[payment.Provider]ProviderFeeProfile) Option {
	return func(c *calculatorImpl) {
		maps.Copy(c.profiles, profiles)
	}
}

func WithPlatformRates(rates map[payment.PlanTier]decimal.Decimal) Option {
	return func(c *calculatorImpl) {
		maps.Copy(c.platformRates, rates)
	}
}

func WithCommissionBase(base CommissionBase) Option {
	return func(c *calculatorImpl) {
		c.commissionBase = base
	}
}

func NewCalculator(opts ...Option) Calculator {
	c := &calculatorImpl{
		profiles:       DefaultProfiles(),
		platformRates:  DefaultPlatformRates(),
		commissionBase: CommissionOnNet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *calculatorImpl) Profile(provider payment.Provider) (ProviderFeeProfile, bool) {
	p, ok := c.profiles[provider]
	return p, ok
}

func (c *calculatorImpl) Calculate(gross int64, provider payment.Provider, tier payment.PlanTier, currency string) (*Breakdown, error) {
	if gross <= 0 {
		return nil, payment.Errorf(payment.KindInvalidAmount, "amount must be positive, got %d", gross)
	}

	profile, ok := c.profiles[provider]
	if !ok {
		return nil, payment.Errorf(payment.KindUnknownProvider, "no fee profile for provider %q", provider)
	}
	platformRate, ok := c.platformRates[tier]
	if !ok {
		return nil, payment.Errorf(payment.KindUnknownProvider, "no platform rate for plan tier %q", tier)
	}

	grossDec := decimal.NewFromInt(gross)

	providerFee := roundHalfUp(grossDec.Mul(profile.Rate)) + profile.FixedFee
	// tiny payments with a fixed fee would otherwise go negative
	providerFee = min(providerFee, gross)

	var base int64
	switch c.commissionBase {
	case CommissionOnGross:
		base = gross
	case CommissionOnNet, "":
		base = gross - providerFee
	default:
		return nil, payment.NewError(payment.KindInternal, "misconfigured commission base", fmt.Errorf("commission base %q", c.commissionBase))
	}
	commission := roundHalfUp(decimal.NewFromInt(base).Mul(platformRate))
	commission = min(commission, gross-providerFee)

	net := gross - providerFee - commission

	share := decimal.NewFromInt(net).
		Mul(decimal.NewFromInt(100)).
		Div(grossDec).
		Round(2)

	return &Breakdown{
		GrossAmount:            gross,
		ProviderFee:            providerFee,
		PlatformCommission:     commission,
		NetEarnings:            net,
		CreatorSharePercentage: share.InexactFloat64(),
		Currency:               payment.NormalizeCurrency(currency),
		Provider:               provider,
		PlanTier:               tier,
	}, nil
}

// amounts here are never negative, so away-from-zero is half-up
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

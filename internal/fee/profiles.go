package fee

import (
	"creator-payments/internal/payment"

	"github.com/shopspring/decimal"
)

type MethodClass string

const (
	MethodCard   MethodClass = "card"
	MethodWallet MethodClass = "wallet"
	MethodBank   MethodClass = "bank"
)

// ProviderFeeProfile is what a provider charges per transaction.
// FixedFee is in minor units of the transaction currency.
type ProviderFeeProfile struct {
	Rate     decimal.Decimal
	FixedFee int64
	Method   MethodClass
}

// CommissionBase selects what the platform percentage is applied to.
type CommissionBase string

const (
	CommissionOnNet   CommissionBase = "net_of_provider_fee"
	CommissionOnGross CommissionBase = "gross"
)

func DefaultProfiles() map[payment.Provider]ProviderFeeProfile {
	return map[payment.Provider]ProviderFeeProfile{
		payment.ProviderCardNetwork:  {Rate: decimal.RequireFromString("0.02"), FixedFee: 0, Method: MethodCard},
		payment.ProviderUPINetwork:   {Rate: decimal.RequireFromString("0.005"), FixedFee: 0, Method: MethodBank},
		payment.ProviderWalletA:      {Rate: decimal.RequireFromString("0.034"), FixedFee: 30, Method: MethodWallet},
		payment.ProviderWalletB:      {Rate: decimal.RequireFromString("0.025"), FixedFee: 0, Method: MethodWallet},
		payment.ProviderBankTransfer: {Rate: decimal.Zero, FixedFee: 0, Method: MethodBank},
	}
}

func DefaultPlatformRates() map[payment.PlanTier]decimal.Decimal {
	return map[payment.PlanTier]decimal.Decimal{
		payment.PlanStandard: decimal.RequireFromString("0.10"),
		payment.PlanPremium:  decimal.RequireFromString("0.08"),
		payment.PlanPartner:  decimal.RequireFromString("0.05"),
	}
}

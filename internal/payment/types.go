package payment

import (
	"fmt"
	"maps"
	"strings"
)

type Provider string

const (
	ProviderCardNetwork  Provider = "CARD_NETWORK"
	ProviderUPINetwork   Provider = "UPI_NETWORK"
	ProviderWalletA      Provider = "WALLET_A"
	ProviderWalletB      Provider = "WALLET_B"
	ProviderBankTransfer Provider = "BANK_TRANSFER"
)

// Providers lists every provider the platform knows about, enabled or not.
var Providers = []Provider{
	ProviderCardNetwork,
	ProviderUPINetwork,
	ProviderWalletA,
	ProviderWalletB,
	ProviderBankTransfer,
}

func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

type Purpose string

const (
	PurposeSubscription    Purpose = "SUBSCRIPTION"
	PurposeTip             Purpose = "TIP"
	PurposeProductPurchase Purpose = "PRODUCT_PURCHASE"
)

func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(strings.ToUpper(strings.TrimSpace(s))); p {
	case PurposeSubscription, PurposeTip, PurposeProductPurchase:
		return p, nil
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}

// SelfPaymentSensitive reports whether a payer may not pay themselves for this purpose.
func (p Purpose) SelfPaymentSensitive() bool {
	return p == PurposeTip || p == PurposeProductPurchase
}

type PlanTier string

const (
	PlanStandard PlanTier = "STANDARD"
	PlanPremium  PlanTier = "PREMIUM"
	PlanPartner  PlanTier = "PARTNER"
)

func ParsePlanTier(s string) (PlanTier, error) {
	switch t := PlanTier(strings.ToUpper(strings.TrimSpace(s))); t {
	case PlanStandard, PlanPremium, PlanPartner:
		return t, nil
	case "":
		return PlanStandard, nil
	}
	return "", fmt.Errorf("unknown plan tier %q", s)
}

// OrderRequest is a single payment intent. Amount is in the currency's minor units.
type OrderRequest struct {
	Provider      Provider          `json:"provider"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PayerID       string            `json:"payer_id"`
	BeneficiaryID string            `json:"beneficiary_id"`
	Purpose       Purpose           `json:"purpose"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Params flattens the request into the key/value set used for idempotency key derivation.
func (r *OrderRequest) Params() map[string]string {
	params := map[string]string{
		"provider":       string(r.Provider),
		"amount":         fmt.Sprintf("%d", r.Amount),
		"currency":       r.Currency,
		"payer_id":       r.PayerID,
		"beneficiary_id": r.BeneficiaryID,
		"purpose":        string(r.Purpose),
	}
	for k, v := range r.Metadata {
		params["metadata."+k] = v
	}
	return params
}

// Order is what an adapter returns when the provider accepted the order.
// Some providers redirect the payer, others need a form POST; either field may be empty.
type Order struct {
	OrderID     string
	RedirectURL string
	FormData    map[string]string
}

// OrderResult is the normalized outcome of a dispatch. Build it with Succeeded or Failed.
type OrderResult struct {
	Success     bool              `json:"success"`
	OrderID     string            `json:"order_id,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	FormData    map[string]string `json:"form_data,omitempty"`
	ErrorKind   ErrorKind         `json:"error_kind,omitempty"`
	Message     string            `json:"message,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func Succeeded(order *Order, metadata map[string]string) *OrderResult {
	return &OrderResult{
		Success:     true,
		OrderID:     order.OrderID,
		RedirectURL: order.RedirectURL,
		FormData:    maps.Clone(order.FormData),
		Metadata:    maps.Clone(metadata),
	}
}

func Failed(err *Error, metadata map[string]string) *OrderResult {
	return &OrderResult{
		Success:   false,
		ErrorKind: err.Kind,
		Message:   err.PublicMessage(),
		Metadata:  maps.Clone(metadata),
	}
}

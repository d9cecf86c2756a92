package provider

import (
	"context"
	"strings"

	"creator-payments/internal/config"
	"creator-payments/internal/payment"

	"github.com/google/uuid"
)

// BankTransferAdapter issues a payment reference the payer quotes on a manual
// transfer. Reconciliation happens out of band.
type BankTransferAdapter struct {
	account config.BankTransfer
	newID   func() string
}

func NewBankTransferAdapter(cfg *config.BankTransfer) *BankTransferAdapter {
	return &BankTransferAdapter{
		account: *cfg,
		newID:   uuid.NewString,
	}
}

func (a *BankTransferAdapter) Provider() payment.Provider {
	return payment.ProviderBankTransfer
}

func (a *BankTransferAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, Normalize(a.Provider(), err)
	}

	id := a.newID()
	// short enough to fit most bank memo fields
	ref := "BT" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:12])

	return &payment.Order{
		OrderID: "bt_" + id,
		FormData: map[string]string{
			"reference":      ref,
			"account_name":   a.account.AccountName,
			"account_number": a.account.AccountNumber,
			"bank_name":      a.account.BankName,
			"routing_code":   a.account.RoutingCode,
			"amount":         payment.FormatMinor(req.Amount, req.Currency),
			"currency":       req.Currency,
		},
	}, nil
}

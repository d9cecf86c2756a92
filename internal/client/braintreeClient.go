package client

import (
	"context"
	"fmt"

	"creator-payments/internal/config"

	"github.com/braintree-go/braintree-go"
)

// --- INTERFACE ---

type BraintreeClient interface {
	// Sale charges a frontend payment method nonce and submits it for settlement.
	// amount is in minor units with the given scale (2 for cents/paise).
	Sale(ctx context.Context, nonce string, amount int64, scale int, orderRef string) (*BraintreeSale, error)
}

type BraintreeSale struct {
	TransactionID string
	Status        string
	Declined      bool
	DeclineReason string
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

func (c *braintreeClientImpl) Sale(ctx context.Context, nonce string, amount int64, scale int, orderRef string) (*BraintreeSale, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(amount, scale),
		PaymentMethodNonce: nonce,
		OrderId:            orderRef,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // Captures the funds immediately
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	sale := &BraintreeSale{
		TransactionID: tx.Id,
		Status:        string(tx.Status),
	}
	switch tx.Status {
	case braintree.TransactionStatusProcessorDeclined, braintree.TransactionStatusGatewayRejected, braintree.TransactionStatusFailed:
		sale.Declined = true
		sale.DeclineReason = tx.ProcessorResponseText
	}

	return sale, nil
}

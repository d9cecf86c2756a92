package client

import (
	"context"
	"errors"
	"fmt"

	"creator-payments/internal/config"

	"github.com/plutov/paypal/v4"
)

type PaypalClient interface {
	CreateOrder(ctx context.Context, req *PaypalOrderRequest) (*CreateOrderResponse, error)
}

type PaypalOrderRequest struct {
	ReferenceID string
	Currency    string
	// major units, e.g. "12.50"
	Value       string
	Description string
	ReturnURL   string
	CancelURL   string
}

type CreateOrderResponse struct {
	OrderID    string
	ApproveURL string
	Status     string
}

type paypalClientImpl struct {
	sdk       *paypal.Client
	brandName string
}

func NewPaypalClient(paypalCfg *config.Paypal) (PaypalClient, error) {
	sdk, err := paypal.NewClient(paypalCfg.ClientID, paypalCfg.ClientSecret, paypalCfg.BaseApiURL)
	if err != nil {
		return nil, fmt.Errorf("new paypal client: %w", err)
	}

	return &paypalClientImpl{
		sdk:       sdk,
		brandName: paypalCfg.BrandName,
	}, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, req *PaypalOrderRequest) (*CreateOrderResponse, error) {
	purchaseUnits := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: req.ReferenceID,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: req.Currency,
				Value:    req.Value,
			},
			Description: req.Description,
		},
	}

	appCtx := &paypal.ApplicationContext{
		BrandName:  c.brandName,
		UserAction: "PAY_NOW",
		ReturnURL:  req.ReturnURL,
		CancelURL:  req.CancelURL,
	}

	order, err := c.sdk.CreateOrder(ctx, paypal.OrderIntentCapture, purchaseUnits, nil, appCtx)
	if err != nil {
		var errResp *paypal.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil {
			return nil, &APIError{
				Provider: "paypal",
				Status:   errResp.Response.StatusCode,
				Code:     errResp.Name,
				Message:  errResp.Message,
			}
		}
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return &CreateOrderResponse{
				OrderID:    order.ID,
				ApproveURL: link.Href,
				Status:     order.Status,
			}, nil
		}
	}

	return nil, fmt.Errorf("approve link not found for paypal order %s", order.ID)
}

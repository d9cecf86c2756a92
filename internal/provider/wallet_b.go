package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"creator-payments/internal/config"
	"creator-payments/internal/payment"

	"github.com/google/uuid"
)

const signedFieldNames = "total_amount,transaction_uuid,product_code"

// FormWalletAdapter prepares a signed form the browser POSTs to the wallet.
// Nothing is sent to the wallet from the server side.
type FormWalletAdapter struct {
	actionURL   string
	productCode string
	secretKey   []byte
	successURL  string
	failureURL  string
	newID       func() string
}

func NewFormWalletAdapter(cfg *config.FormWallet, serviceBaseURL string) (*FormWalletAdapter, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("form wallet secret key is not configured")
	}
	return &FormWalletAdapter{
		actionURL:   cfg.ActionURL,
		productCode: cfg.ProductCode,
		secretKey:   []byte(cfg.SecretKey),
		successURL:  serviceBaseURL + "/payments/return",
		failureURL:  serviceBaseURL + "/payments/cancel",
		newID:       uuid.NewString,
	}, nil
}

func (a *FormWalletAdapter) Provider() payment.Provider {
	return payment.ProviderWalletB
}

func (a *FormWalletAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, Normalize(a.Provider(), err)
	}

	txID := req.Metadata[MetaOrderRef]
	if txID == "" {
		txID = a.newID()
	}
	total := payment.FormatMinor(req.Amount, req.Currency)

	successURL := a.successURL
	if v := req.Metadata[MetaReturnURL]; v != "" {
		successURL = v
	}
	failureURL := a.failureURL
	if v := req.Metadata[MetaCancelURL]; v != "" {
		failureURL = v
	}

	fields := map[string]string{
		"action":                  a.actionURL,
		"amount":                  total,
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": "0",
		"total_amount":            total,
		"transaction_uuid":        txID,
		"product_code":            a.productCode,
		"success_url":             successURL,
		"failure_url":             failureURL,
		"signed_field_names":      signedFieldNames,
	}
	fields["signature"] = a.sign(fields)

	return &payment.Order{
		OrderID:  txID,
		FormData: fields,
	}, nil
}

// sign computes base64(HMAC-SHA256) over "name=value" pairs of the signed fields.
func (a *FormWalletAdapter) sign(fields map[string]string) string {
	names := strings.Split(signedFieldNames, ",")
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + fields[name]
	}

	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(strings.Join(parts, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

package dto

type CreatePaymentOrderRequest struct {
	Provider      string            `json:"provider"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	BeneficiaryID string            `json:"beneficiary_id"`
	Purpose       string            `json:"purpose"`
	Metadata      map[string]string `json:"metadata"`
	// the Idempotency-Key header takes precedence
	IdempotencyKey string `json:"idempotency_key"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

type PaymentOrderItem struct {
	OrderID            string `json:"order_id"`
	Provider           string `json:"provider"`
	Purpose            string `json:"purpose"`
	Status             string `json:"status"`
	PayerID            string `json:"payer_id"`
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	ProviderFee        int64  `json:"provider_fee"`
	PlatformCommission int64  `json:"platform_commission"`
	NetEarnings        int64  `json:"net_earnings"`
	CreatedAt          string `json:"created_at"`
}

type RegisterCreatorRequest struct {
	DisplayName string `json:"display_name"`
}

type UpdateCreatorRequest struct {
	Active   *bool   `json:"active"`
	PlanTier *string `json:"plan_tier"`
}

type CreatorResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
	PlanTier    string `json:"plan_tier"`
}

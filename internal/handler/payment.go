package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"creator-payments/internal/dto"
	"creator-payments/internal/middleware"
	"creator-payments/internal/payment"
	"creator-payments/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

func errorResponse(c echo.Context, perr *payment.Error) error {
	return c.JSON(perr.Kind.HTTPStatus(), dto.ErrorResponse{
		Success:   false,
		ErrorKind: string(perr.Kind),
		Message:   perr.PublicMessage(),
	})
}

func (h *PaymentHandler) CreatePaymentOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, payment.Errorf(payment.KindInvalidRequest, "malformed request body"))
	}

	purpose, err := payment.ParsePurpose(req.Purpose)
	if err != nil {
		return errorResponse(c, payment.Errorf(payment.KindInvalidRequest, "purpose must be one of SUBSCRIPTION, TIP, PRODUCT_PURCHASE"))
	}
	if req.BeneficiaryID == "" {
		return errorResponse(c, payment.Errorf(payment.KindInvalidRequest, "beneficiary_id is required"))
	}

	token := c.Request().Header.Get(HeaderIdempotencyKey)
	if token == "" {
		token = req.IdempotencyKey
	}

	res, err := h.paymentService.CreatePaymentOrder(ctx, service.CreateOrderCommand{
		Provider:         payment.Provider(strings.ToUpper(strings.TrimSpace(req.Provider))),
		Amount:           req.Amount,
		Currency:         req.Currency,
		PayerID:          middleware.UserID(c),
		BeneficiaryID:    req.BeneficiaryID,
		Purpose:          purpose,
		Metadata:         req.Metadata,
		IdempotencyToken: token,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// client went away; the order keeps running and is cached
			return c.NoContent(http.StatusRequestTimeout)
		}
		h.log.Error("create payment order", zap.String("payer_id", middleware.UserID(c)), zap.Error(err))
		return errorResponse(c, payment.AsError(err))
	}

	if res.WasReplay {
		c.Response().Header().Set(HeaderIdempotentReplayed, "true")
	}

	status := http.StatusCreated
	switch {
	case !res.Success:
		status = res.ErrorKind.HTTPStatus()
	case res.WasReplay:
		status = http.StatusOK
	}
	return c.JSON(status, res)
}

func (h *PaymentHandler) CalculateFees(c echo.Context) error {
	ctx := c.Request().Context()

	amount, err := strconv.ParseInt(c.QueryParam("amount"), 10, 64)
	if err != nil {
		return errorResponse(c, payment.Errorf(payment.KindInvalidAmount, "amount must be an integer in minor units"))
	}
	p, err := payment.ParseProvider(c.QueryParam("provider"))
	if err != nil {
		return errorResponse(c, payment.Errorf(payment.KindUnsupportedProvider, "provider %q is not supported", c.QueryParam("provider")))
	}
	tier, err := payment.ParsePlanTier(c.QueryParam("plan_tier"))
	if err != nil {
		return errorResponse(c, payment.Errorf(payment.KindInvalidRequest, "plan_tier must be one of STANDARD, PREMIUM, PARTNER"))
	}
	currency := c.QueryParam("currency")
	if currency == "" {
		currency = "INR"
	}

	breakdown, err := h.paymentService.CalculateFees(ctx, amount, p, tier, currency)
	if err != nil {
		return errorResponse(c, payment.AsError(err))
	}

	return c.JSON(http.StatusOK, breakdown)
}

func (h *PaymentHandler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"providers": h.paymentService.Providers(),
	})
}

func (h *PaymentHandler) ListCreatorOrders(c echo.Context) error {
	ctx := c.Request().Context()
	creatorID := c.Param("creatorID")

	if middleware.UserID(c) != creatorID && middleware.Role(c) != middleware.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to view these orders")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	orders, err := h.paymentService.ListCreatorOrders(ctx, creatorID, limit)
	if err != nil {
		h.log.Error("list creator orders", zap.String("creator_id", creatorID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load orders")
	}

	items := make([]dto.PaymentOrderItem, len(orders))
	for i, o := range orders {
		items[i] = dto.PaymentOrderItem{
			OrderID:            o.OrderID,
			Provider:           o.Provider,
			Purpose:            o.Purpose,
			Status:             o.Status,
			PayerID:            o.PayerID,
			Amount:             o.Amount,
			Currency:           o.Currency,
			ProviderFee:        o.ProviderFee,
			PlatformCommission: o.PlatformCommission,
			NetEarnings:        o.NetEarnings,
			CreatedAt:          o.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"orders": items,
	})
}

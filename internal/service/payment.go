package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"creator-payments/internal/fee"
	"creator-payments/internal/idempotency"
	"creator-payments/internal/model"
	"creator-payments/internal/payment"
	"creator-payments/internal/provider"
	"creator-payments/internal/repository"

	"go.uber.org/zap"
)

const OperationCreatePaymentOrder = "create_payment_order"

type CreateOrderCommand struct {
	Provider         payment.Provider
	Amount           int64
	Currency         string
	PayerID          string
	BeneficiaryID    string
	Purpose          payment.Purpose
	Metadata         map[string]string
	IdempotencyToken string
}

// OrderOutcome is what gets cached per idempotency key.
type OrderOutcome struct {
	payment.OrderResult
	Fees *fee.Breakdown `json:"fees,omitempty"`
}

type CreateOrderResult struct {
	OrderOutcome
	WasReplay bool `json:"was_replay"`
}

type ProviderInfo struct {
	Provider payment.Provider `json:"provider"`
	Method   fee.MethodClass  `json:"method"`
	Rate     string           `json:"rate"`
	FixedFee int64            `json:"fixed_fee"`
}

type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error)
	CalculateFees(ctx context.Context, amount int64, p payment.Provider, tier payment.PlanTier, currency string) (*fee.Breakdown, error)
	Providers() []ProviderInfo
	ListCreatorOrders(ctx context.Context, creatorID string, limit int) ([]*model.PaymentOrder, error)
}

type paymentServiceImpl struct {
	dispatcher *Dispatcher
	executor   *idempotency.Executor[*OrderOutcome]
	calculator fee.Calculator
	registry   *provider.Registry
	creators   CreatorLookup
	orderRepo  repository.OrderRepository
	log        *zap.Logger
}

func NewPaymentService(
	dispatcher *Dispatcher,
	executor *idempotency.Executor[*OrderOutcome],
	calculator fee.Calculator,
	registry *provider.Registry,
	creators CreatorLookup,
	orderRepo repository.OrderRepository,
	log *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		dispatcher: dispatcher,
		executor:   executor,
		calculator: calculator,
		registry:   registry,
		creators:   creators,
		orderRepo:  orderRepo,
		log:        log,
	}
}

// VerifyFeeProfiles reports the first enabled provider without a fee profile.
func VerifyFeeProfiles(calc fee.Calculator, providers []payment.Provider) error {
	for _, p := range providers {
		if _, ok := calc.Profile(p); !ok {
			return fmt.Errorf("no fee profile for enabled provider %s", p)
		}
	}
	return nil
}

func (s *paymentServiceImpl) CreatePaymentOrder(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	req := &payment.OrderRequest{
		Provider:      cmd.Provider,
		Amount:        cmd.Amount,
		Currency:      payment.NormalizeCurrency(cmd.Currency),
		PayerID:       cmd.PayerID,
		BeneficiaryID: cmd.BeneficiaryID,
		Purpose:       cmd.Purpose,
		Metadata:      cmd.Metadata,
	}

	outcome, replay, err := s.executor.Execute(ctx, idempotency.Command[*OrderOutcome]{
		UserID:      cmd.PayerID,
		Operation:   OperationCreatePaymentOrder,
		ClientToken: cmd.IdempotencyToken,
		Params:      req.Params(),
		Run: func(ctx context.Context) (*OrderOutcome, error) {
			return s.createOrder(ctx, req, cmd.IdempotencyToken)
		},
	})
	if errors.Is(err, idempotency.ErrInFlight) {
		return &CreateOrderResult{
			OrderOutcome: OrderOutcome{OrderResult: *payment.Failed(payment.ErrRequestInProgress, req.Metadata)},
		}, nil
	}
	// internal failures are not stored, so the next retry dispatches again
	var perr *payment.Error
	if errors.As(err, &perr) && perr.Kind.Category() == payment.CategoryInternal {
		return &CreateOrderResult{
			OrderOutcome: OrderOutcome{OrderResult: *payment.Failed(perr, req.Metadata)},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("execute create payment order: %w", err)
	}

	return &CreateOrderResult{
		OrderOutcome: *outcome,
		WasReplay:    replay,
	}, nil
}

// createOrder runs once per idempotency key. Internal failures come back as
// errors so the executor does not cache them.
func (s *paymentServiceImpl) createOrder(ctx context.Context, req *payment.OrderRequest, token string) (*OrderOutcome, error) {
	result := s.dispatcher.Dispatch(ctx, req.Provider, req)
	out := &OrderOutcome{OrderResult: *result}
	if !result.Success {
		if result.ErrorKind.Category() == payment.CategoryInternal {
			return nil, &payment.Error{Kind: result.ErrorKind, Message: result.Message}
		}
		return out, nil
	}

	tier := payment.PlanStandard
	if creator, err := s.creators.Get(ctx, req.BeneficiaryID); err == nil {
		if t, err := payment.ParsePlanTier(creator.PlanTier); err == nil {
			tier = t
		}
	}

	breakdown, err := s.calculator.Calculate(req.Amount, req.Provider, tier, req.Currency)
	if err != nil {
		s.log.Error("fee calculation failed after provider order",
			zap.String("order_id", result.OrderID),
			zap.String("provider", string(req.Provider)),
			zap.String("plan_tier", string(tier)),
			zap.String("currency", req.Currency),
			zap.Error(err),
		)
	}
	out.Fees = breakdown

	s.persist(ctx, req, out, tier, token)
	return out, nil
}

func (s *paymentServiceImpl) persist(ctx context.Context, req *payment.OrderRequest, out *OrderOutcome, tier payment.PlanTier, token string) {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	record := &model.PaymentOrder{
		OrderID:        out.OrderID,
		Provider:       string(req.Provider),
		Purpose:        string(req.Purpose),
		Status:         model.OrderStatusCreated,
		PayerID:        req.PayerID,
		BeneficiaryID:  req.BeneficiaryID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		RedirectURL:    out.RedirectURL,
		PlanTier:       string(tier),
		IdempotencyKey: token,
		Metadata:       string(metadata),
	}
	if out.Fees != nil {
		record.ProviderFee = out.Fees.ProviderFee
		record.PlatformCommission = out.Fees.PlatformCommission
		record.NetEarnings = out.Fees.NetEarnings
	}

	if err := s.orderRepo.Create(ctx, record); err != nil {
		// the provider order exists; the cached result must still say so
		s.log.Error("persist payment order",
			zap.String("order_id", out.OrderID),
			zap.String("provider", string(req.Provider)),
			zap.Error(err),
		)
	}
}

func (s *paymentServiceImpl) CalculateFees(ctx context.Context, amount int64, p payment.Provider, tier payment.PlanTier, currency string) (*fee.Breakdown, error) {
	breakdown, err := s.calculator.Calculate(amount, p, tier, currency)
	if err != nil {
		var perr *payment.Error
		if errors.As(err, &perr) && perr.Kind.Category() == payment.CategoryInternal {
			s.log.Error("fee calculation failed",
				zap.String("provider", string(p)),
				zap.String("plan_tier", string(tier)),
				zap.String("currency", currency),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return breakdown, nil
}

func (s *paymentServiceImpl) Providers() []ProviderInfo {
	enabled := s.registry.Enabled()
	infos := make([]ProviderInfo, 0, len(enabled))
	for _, p := range enabled {
		info := ProviderInfo{Provider: p}
		if profile, ok := s.calculator.Profile(p); ok {
			info.Method = profile.Method
			info.Rate = profile.Rate.String()
			info.FixedFee = profile.FixedFee
		}
		infos = append(infos, info)
	}
	return infos
}

func (s *paymentServiceImpl) ListCreatorOrders(ctx context.Context, creatorID string, limit int) ([]*model.PaymentOrder, error) {
	orders, err := s.orderRepo.ListByBeneficiary(ctx, creatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list creator orders: %w", err)
	}
	return orders, nil
}

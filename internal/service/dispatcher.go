package service

import (
	"context"
	"errors"

	"creator-payments/internal/config"
	"creator-payments/internal/model"
	"creator-payments/internal/payment"
	"creator-payments/internal/provider"
	"creator-payments/internal/repository"

	"go.uber.org/zap"
)

// CreatorLookup resolves a beneficiary. repository.CreatorRepository satisfies it.
type CreatorLookup interface {
	Get(ctx context.Context, creatorID string) (*model.Creator, error)
}

// Minimums are the smallest accepted amounts per purpose, in minor units.
type Minimums map[payment.Purpose]int64

func MinimumsFromConfig(cfg *config.Limits) Minimums {
	return Minimums{
		payment.PurposeSubscription:    cfg.Subscription,
		payment.PurposeTip:             cfg.Tip,
		payment.PurposeProductPurchase: cfg.ProductPurchase,
	}
}

// Dispatcher validates a request and hands it to the provider's adapter.
// It never persists anything.
type Dispatcher struct {
	registry *provider.Registry
	creators CreatorLookup
	minimums Minimums
	log      *zap.Logger
}

func NewDispatcher(registry *provider.Registry, creators CreatorLookup, minimums Minimums, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		creators: creators,
		minimums: minimums,
		log:      log,
	}
}

// Dispatch runs the business rules in a fixed order and calls the adapter
// exactly once if they all pass. Failures come back as a result, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, p payment.Provider, req *payment.OrderRequest) *payment.OrderResult {
	if perr := d.validate(ctx, p, req); perr != nil {
		return payment.Failed(perr, req.Metadata)
	}

	adapter, ok := d.registry.Get(p)
	if !ok {
		d.log.Error("no adapter registered for enabled provider", zap.String("provider", string(p)))
		return payment.Failed(payment.Errorf(payment.KindUnknownProvider, "no adapter for %s", p), req.Metadata)
	}

	order, err := adapter.CreateOrder(ctx, req)
	if err != nil {
		perr := provider.Normalize(p, err)
		d.log.Warn("provider create order failed",
			zap.String("provider", string(p)),
			zap.String("kind", string(perr.Kind)),
			zap.String("payer_id", req.PayerID),
			zap.Error(err),
		)
		return payment.Failed(perr, req.Metadata)
	}

	return payment.Succeeded(order, req.Metadata)
}

func (d *Dispatcher) validate(ctx context.Context, p payment.Provider, req *payment.OrderRequest) *payment.Error {
	if !d.registry.IsEnabled(p) {
		return payment.Errorf(payment.KindUnsupportedProvider, "provider %q is not supported", p)
	}

	minimum, ok := d.minimums[req.Purpose]
	if !ok {
		return payment.Errorf(payment.KindInvalidRequest, "unknown purpose %q", req.Purpose)
	}
	if req.Amount < minimum {
		return payment.Errorf(payment.KindAmountTooLow, "minimum amount for %s is %s %s",
			req.Purpose, payment.FormatMinor(minimum, req.Currency), req.Currency)
	}

	if req.Purpose.SelfPaymentSensitive() && req.PayerID == req.BeneficiaryID {
		return payment.ErrSelfPaymentForbidden
	}

	creator, err := d.creators.Get(ctx, req.BeneficiaryID)
	if errors.Is(err, repository.ErrCreatorNotFound) || (err == nil && !creator.Active) {
		return payment.ErrBeneficiaryNotFound
	}
	if err != nil {
		d.log.Error("beneficiary lookup failed", zap.String("beneficiary_id", req.BeneficiaryID), zap.Error(err))
		return payment.NewError(payment.KindInternal, "beneficiary lookup failed", err)
	}

	if len(req.Currency) != 3 {
		return payment.Errorf(payment.KindInvalidRequest, "currency must be a 3-letter ISO code")
	}

	return nil
}

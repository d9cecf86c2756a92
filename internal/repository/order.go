package repository

import (
	"context"

	"creator-payments/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.PaymentOrder) error
	FindByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*model.PaymentOrder, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*model.PaymentOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var orders []*model.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("beneficiary_id = ?", beneficiaryID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

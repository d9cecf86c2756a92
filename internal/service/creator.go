package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"creator-payments/internal/model"
	"creator-payments/internal/payment"
	"creator-payments/internal/repository"
)

type CreatorService interface {
	RegisterCreator(ctx context.Context, userID, displayName string) (*model.Creator, error)
	UpdateCreator(ctx context.Context, creatorID string, active *bool, tier *payment.PlanTier) (*model.Creator, error)
	GetCreator(ctx context.Context, creatorID string) (*model.Creator, error)
}

type creatorServiceImpl struct {
	creatorRepo repository.CreatorRepository
}

func NewCreatorService(
	creatorRepo repository.CreatorRepository,
) CreatorService {
	return &creatorServiceImpl{
		creatorRepo: creatorRepo,
	}
}

// RegisterCreator turns the user into an active creator on the standard plan.
// Registering again only updates the display name.
func (s *creatorServiceImpl) RegisterCreator(ctx context.Context, userID, displayName string) (*model.Creator, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, payment.Errorf(payment.KindInvalidRequest, "display_name is required")
	}

	creator, err := s.creatorRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCreatorNotFound) {
		return nil, fmt.Errorf("get creator: %w", err)
	}
	if creator == nil {
		creator = &model.Creator{
			ID:       userID,
			Active:   true,
			PlanTier: string(payment.PlanStandard),
		}
	}
	creator.DisplayName = displayName

	if err := s.creatorRepo.Upsert(ctx, creator); err != nil {
		return nil, fmt.Errorf("upsert creator: %w", err)
	}
	return creator, nil
}

func (s *creatorServiceImpl) UpdateCreator(ctx context.Context, creatorID string, active *bool, tier *payment.PlanTier) (*model.Creator, error) {
	creator, err := s.creatorRepo.Get(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	if active != nil {
		creator.Active = *active
	}
	if tier != nil {
		creator.PlanTier = string(*tier)
	}

	if err := s.creatorRepo.Upsert(ctx, creator); err != nil {
		return nil, fmt.Errorf("upsert creator: %w", err)
	}
	return creator, nil
}

func (s *creatorServiceImpl) GetCreator(ctx context.Context, creatorID string) (*model.Creator, error) {
	return s.creatorRepo.Get(ctx, creatorID)
}

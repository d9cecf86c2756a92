package repository

import (
	"context"
	"errors"
	"time"

	"creator-payments/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCreatorNotFound = errors.New("creator not found")

type CreatorRepository interface {
	Upsert(ctx context.Context, creator *model.Creator) error
	Get(ctx context.Context, creatorID string) (*model.Creator, error)
}

type creatorRepoImpl struct {
	db *gorm.DB
}

func NewCreatorRepository(db *gorm.DB) CreatorRepository {
	return &creatorRepoImpl{
		db: db,
	}
}

func (r *creatorRepoImpl) Upsert(ctx context.Context, creator *model.Creator) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"display_name": creator.DisplayName,
			"active":       creator.Active,
			"plan_tier":    creator.PlanTier,
			"updated_at":   time.Now(),
		}),
	}).Create(creator).Error
}

func (r *creatorRepoImpl) Get(ctx context.Context, creatorID string) (*model.Creator, error) {
	var creator model.Creator
	err := r.db.WithContext(ctx).
		Where("id = ?", creatorID).
		First(&creator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCreatorNotFound
	}
	if err != nil {
		return nil, err
	}

	return &creator, nil
}

package repository

import (
	"context"
	"tafaseel/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sub *model.SallaUserSubscription) error
	DeactivateAll(ctx context.Context, tx *gorm.DB, userID uint) error
	LastActive(ctx context.Context, userID uint) (*model.SallaUserSubscription, error)
}

type subscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepoImpl{
		db: db,
	}
}

func (r *subscriptionRepoImpl) Create(ctx context.Context, tx *gorm.DB, sub *model.SallaUserSubscription) error {
	return conn(r.db, tx).WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepoImpl) DeactivateAll(ctx context.Context, tx *gorm.DB, userID uint) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.SallaUserSubscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).
		Error
}

func (r *subscriptionRepoImpl) LastActive(ctx context.Context, userID uint) (*model.SallaUserSubscription, error) {
	var sub model.SallaUserSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC, id DESC").
		First(&sub).
		Error
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

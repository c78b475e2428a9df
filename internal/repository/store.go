package repository

import (
	"context"
	"tafaseel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, store *model.SallaStore) error
	GetByUserID(ctx context.Context, userID uint) (*model.SallaStore, error)
}

type storeRepoImpl struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepoImpl{
		db: db,
	}
}

// Upsert keeps one store per user, refreshing its details from Salla.
func (r *storeRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, store *model.SallaStore) error {
	return conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"salla_id", "name", "email", "avatar", "plan", "status", "verified",
			"currency", "domain", "description", "licenses", "social", "updated_at",
		}),
	}).Create(store).Error
}

func (r *storeRepoImpl) GetByUserID(ctx context.Context, userID uint) (*model.SallaStore, error) {
	var store model.SallaStore
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&store).Error
	if err != nil {
		return nil, err
	}

	return &store, nil
}

package repository

import (
	"context"
	"tafaseel/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *model.SallaUser) error
	Save(ctx context.Context, tx *gorm.DB, user *model.SallaUser) error
	GetByID(ctx context.Context, id uint) (*model.SallaUser, error)
	GetBySallaID(ctx context.Context, sallaID string) (*model.SallaUser, error)
	GetByEmail(ctx context.Context, email string) (*model.SallaUser, error)
	GetByStoreSallaID(ctx context.Context, storeSallaID string) (*model.SallaUser, error)
	UpdateCredentials(ctx context.Context, tx *gorm.DB, userID uint, email, passwordHash string) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Create(ctx context.Context, tx *gorm.DB, user *model.SallaUser) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Store", "Account").Create(user).Error
}

func (r *userRepoImpl) Save(ctx context.Context, tx *gorm.DB, user *model.SallaUser) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Store", "Account").Save(user).Error
}

func (r *userRepoImpl) GetByID(ctx context.Context, id uint) (*model.SallaUser, error) {
	var user model.SallaUser
	err := r.db.WithContext(ctx).
		Preload("Store").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) GetBySallaID(ctx context.Context, sallaID string) (*model.SallaUser, error) {
	var user model.SallaUser
	err := r.db.WithContext(ctx).
		Where("salla_id = ?", sallaID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) GetByEmail(ctx context.Context, email string) (*model.SallaUser, error) {
	var user model.SallaUser
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Where("is_active = ?", true).
		Order("id").
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByStoreSallaID finds the owner of the store with the given Salla id.
func (r *userRepoImpl) GetByStoreSallaID(ctx context.Context, storeSallaID string) (*model.SallaUser, error) {
	var user model.SallaUser
	err := r.db.WithContext(ctx).
		Joins("JOIN salla_stores ON salla_stores.user_id = salla_users.id").
		Where("salla_stores.salla_id = ?", storeSallaID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) UpdateCredentials(ctx context.Context, tx *gorm.DB, userID uint, email, passwordHash string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if email != "" {
		updates["email"] = email
	}
	if passwordHash != "" {
		updates["password"] = passwordHash
	}

	result := conn(r.db, tx).
		WithContext(ctx).
		Model(&model.SallaUser{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

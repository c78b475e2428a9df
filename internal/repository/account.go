package repository

import (
	"context"
	"tafaseel/internal/model"
	"time"

	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *model.Account) error
	Save(ctx context.Context, tx *gorm.DB, account *model.Account) error
	GetByPublicToken(ctx context.Context, publicToken string) (*model.Account, error)
	GetByUserID(ctx context.Context, userID uint) (*model.Account, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*model.Account, error)
	ClearTokens(ctx context.Context, accountID uint) error
}

type accountRepoImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepoImpl{
		db: db,
	}
}

func (r *accountRepoImpl) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	return conn(r.db, tx).WithContext(ctx).Omit("User").Create(account).Error
}

func (r *accountRepoImpl) Save(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	return conn(r.db, tx).WithContext(ctx).Omit("User").Save(account).Error
}

func (r *accountRepoImpl) GetByPublicToken(ctx context.Context, publicToken string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("public_token = ?", publicToken).
		First(&account).Error
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *accountRepoImpl) GetByUserID(ctx context.Context, userID uint) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// ListExpiring returns accounts holding tokens that expire at or before the given time.
func (r *accountRepoImpl) ListExpiring(ctx context.Context, before time.Time) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("expires_in <= ?", before.Unix()).
		Where("refresh_token <> ?", "").
		Order("expires_in").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepoImpl) ClearTokens(ctx context.Context, accountID uint) error {
	result := r.db.
		WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"access_token":  "",
			"refresh_token": "",
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

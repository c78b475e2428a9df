package repository

import (
	"context"
	"tafaseel/internal/model"

	"gorm.io/gorm"
)

type WebhookLogRepository interface {
	Create(ctx context.Context, entry *model.SallaWebhookLog) error
	ListByMerchant(ctx context.Context, merchantID string, limit int) ([]*model.SallaWebhookLog, error)
}

type webhookLogRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepositoryImpl{db: db}
}

func (r *webhookLogRepositoryImpl) Create(ctx context.Context, entry *model.SallaWebhookLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *webhookLogRepositoryImpl) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]*model.SallaWebhookLog, error) {
	var logs []*model.SallaWebhookLog
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error

	return logs, err
}

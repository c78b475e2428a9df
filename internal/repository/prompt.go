package repository

import (
	"context"
	"tafaseel/internal/model"
	"time"

	"gorm.io/gorm"
)

type PromptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *model.ChatGPTResponse, prompt *model.UserPrompt) error
	GetForUser(ctx context.Context, userID, promptID uint) (*model.UserPrompt, error)
	History(ctx context.Context, userID uint, productID string, promptType model.PromptType) ([]*model.UserPrompt, error)
	SetAccepted(ctx context.Context, tx *gorm.DB, promptID uint, accepted bool) error
	CountBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error)
}

type promptRepoImpl struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepoImpl{
		db: db,
	}
}

// Create stores the model response and the prompt pointing at it.
func (r *promptRepoImpl) Create(ctx context.Context, tx *gorm.DB, response *model.ChatGPTResponse, prompt *model.UserPrompt) error {
	return conn(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}

		prompt.ChatGPTResponseID = response.ID
		prompt.ChatGPTResponse = response
		return tx.Omit("User", "ChatGPTResponse").Create(prompt).Error
	})
}

func (r *promptRepoImpl) GetForUser(ctx context.Context, userID, promptID uint) (*model.UserPrompt, error) {
	var prompt model.UserPrompt
	err := r.db.WithContext(ctx).
		Preload("ChatGPTResponse").
		Where("id = ? AND user_id = ?", promptID, userID).
		First(&prompt).Error
	if err != nil {
		return nil, err
	}

	return &prompt, nil
}

// History lists the user's prompts for one product field, newest first.
func (r *promptRepoImpl) History(ctx context.Context, userID uint, productID string, promptType model.PromptType) ([]*model.UserPrompt, error) {
	var prompts []*model.UserPrompt
	err := r.db.WithContext(ctx).
		Preload("ChatGPTResponse").
		Where(`
			user_id = ?
			AND product_id = ?
			AND prompt_type = ?
		`,
			userID,
			productID,
			promptType,
		).
		Order("created_at DESC, id DESC").
		Find(&prompts).Error
	if err != nil {
		return nil, err
	}

	return prompts, nil
}

func (r *promptRepoImpl) SetAccepted(ctx context.Context, tx *gorm.DB, promptID uint, accepted bool) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.UserPrompt{}).
		Where("id = ?", promptID).
		Updates(map[string]interface{}{
			"is_accepted": accepted,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// CountBetween counts prompts created in [from, to].
func (r *promptRepoImpl) CountBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserPrompt{}).
		Where("user_id = ?", userID).
		Where("created_at BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

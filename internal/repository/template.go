package repository

import (
	"context"
	"tafaseel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromptTemplateRepository interface {
	Seed(ctx context.Context) error
	Upsert(ctx context.Context, tmpl *model.PromptTemplate) error
	FindByName(ctx context.Context, name string) (*model.PromptTemplate, error)
	List(ctx context.Context) ([]*model.PromptTemplate, error)
}

type promptTemplateRepoImpl struct {
	db *gorm.DB
}

func NewPromptTemplateRepository(db *gorm.DB) PromptTemplateRepository {
	return &promptTemplateRepoImpl{
		db: db,
	}
}

// Seed inserts the built-in templates, leaving edited ones untouched.
func (r *promptTemplateRepoImpl) Seed(ctx context.Context) error {
	templates := []model.PromptTemplate{
		{Type: model.PromptTypeTitle, Language: "EN", Template: "Write a short, catchy product title for {product_name}. Keywords: {keywords_str}"},
		{Type: model.PromptTypeTitle, Language: "AR", Template: "اكتب عنواناً قصيراً وجذاباً للمنتج {product_name}. الكلمات المفتاحية: {keywords_str}"},
		{Type: model.PromptTypeDescription, Language: "EN", Template: "Write a persuasive product description for {product_name}. Keywords: {keywords_str}"},
		{Type: model.PromptTypeDescription, Language: "AR", Template: "اكتب وصفاً مقنعاً للمنتج {product_name}. الكلمات المفتاحية: {keywords_str}"},
		{Type: model.PromptTypeSEOTitle, Language: "EN", Template: "Write an SEO page title under 70 characters for {product_name}. Keywords: {keywords_str}"},
		{Type: model.PromptTypeSEOTitle, Language: "AR", Template: "اكتب عنوان صفحة متوافقاً مع محركات البحث لا يتجاوز 70 حرفاً للمنتج {product_name}. الكلمات المفتاحية: {keywords_str}"},
		{Type: model.PromptTypeSEODescription, Language: "EN", Template: "Write an SEO meta description under 160 characters for {product_name}. Keywords: {keywords_str}"},
		{Type: model.PromptTypeSEODescription, Language: "AR", Template: "اكتب وصفاً تعريفياً متوافقاً مع محركات البحث لا يتجاوز 160 حرفاً للمنتج {product_name}. الكلمات المفتاحية: {keywords_str}"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&templates).Error
}

func (r *promptTemplateRepoImpl) Upsert(ctx context.Context, tmpl *model.PromptTemplate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "language", "template", "updated_at"}),
	}).Create(tmpl).Error
}

func (r *promptTemplateRepoImpl) FindByName(ctx context.Context, name string) (*model.PromptTemplate, error) {
	var tmpl model.PromptTemplate
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&tmpl).Error
	if err != nil {
		return nil, err
	}

	return &tmpl, nil
}

func (r *promptTemplateRepoImpl) List(ctx context.Context) ([]*model.PromptTemplate, error) {
	var templates []*model.PromptTemplate
	err := r.db.WithContext(ctx).
		Order("name").
		Find(&templates).
		Error
	if err != nil {
		return nil, err
	}

	return templates, nil
}

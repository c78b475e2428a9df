package repository

import (
	"context"
	"tafaseel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StaticPageRepository interface {
	Create(ctx context.Context, page *model.StaticPage) error
	Upsert(ctx context.Context, page *model.StaticPage) error
	GetBySlug(ctx context.Context, slug string) (*model.StaticPage, error)
	ListNav(ctx context.Context) ([]*model.StaticPage, error)
}

type staticPageRepoImpl struct {
	db *gorm.DB
}

func NewStaticPageRepository(db *gorm.DB) StaticPageRepository {
	return &staticPageRepoImpl{
		db: db,
	}
}

func (r *staticPageRepoImpl) Create(ctx context.Context, page *model.StaticPage) error {
	return r.db.WithContext(ctx).Create(page).Error
}

// Upsert replaces the content of the page with the same slug.
func (r *staticPageRepoImpl) Upsert(ctx context.Context, page *model.StaticPage) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "md", "html", "head", "custom_css", "custom_js", "is_nav", "nav_name", "updated_at",
		}),
	}).Create(page).Error
}

func (r *staticPageRepoImpl) GetBySlug(ctx context.Context, slug string) (*model.StaticPage, error) {
	var page model.StaticPage
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&page).Error
	if err != nil {
		return nil, err
	}

	return &page, nil
}

func (r *staticPageRepoImpl) ListNav(ctx context.Context) ([]*model.StaticPage, error) {
	var pages []*model.StaticPage
	err := r.db.WithContext(ctx).
		Where("is_nav = ?", true).
		Order("nav_ordering, slug").
		Find(&pages).
		Error
	if err != nil {
		return nil, err
	}

	return pages, nil
}

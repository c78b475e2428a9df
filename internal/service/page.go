package service

import (
	"context"
	"fmt"
	"tafaseel/internal/model"
	"tafaseel/internal/repository"
)

type PageService interface {
	Get(ctx context.Context, slug string) (*model.StaticPage, error)
	NavPages(ctx context.Context) ([]model.NavPage, error)
	Create(ctx context.Context, page *model.StaticPage) error
	Upsert(ctx context.Context, page *model.StaticPage) error
}

type pageServiceImpl struct {
	pageRepo repository.StaticPageRepository
}

func NewPageService(pageRepo repository.StaticPageRepository) PageService {
	return &pageServiceImpl{pageRepo: pageRepo}
}

func (s *pageServiceImpl) Get(ctx context.Context, slug string) (*model.StaticPage, error) {
	return s.pageRepo.GetBySlug(ctx, slug)
}

func (s *pageServiceImpl) NavPages(ctx context.Context) ([]model.NavPage, error) {
	pages, err := s.pageRepo.ListNav(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nav pages: %w", err)
	}

	nav := make([]model.NavPage, len(pages))
	for i, page := range pages {
		nav[i] = page.NavPage()
	}
	return nav, nil
}

func (s *pageServiceImpl) Create(ctx context.Context, page *model.StaticPage) error {
	return s.pageRepo.Create(ctx, page)
}

func (s *pageServiceImpl) Upsert(ctx context.Context, page *model.StaticPage) error {
	return s.pageRepo.Upsert(ctx, page)
}

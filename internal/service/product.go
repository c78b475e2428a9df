package service

import (
	"context"
	"encoding/json"
	"fmt"
	"tafaseel/internal/client"
	"tafaseel/internal/dto"
	"tafaseel/internal/model"
)

type ProductService interface {
	List(ctx context.Context, account *model.Account, params *dto.ProductListParams) (json.RawMessage, error)
	Get(ctx context.Context, account *model.Account, productID string) (json.RawMessage, error)
	UpdateField(ctx context.Context, account *model.Account, productID, key, value string) (json.RawMessage, error)
	Home(ctx context.Context, account *model.Account, params *dto.ProductListParams) (*dto.Home, error)
	Settings(ctx context.Context, account *model.Account) (json.RawMessage, error)
}

type productServiceImpl struct {
	accountService AccountService
	pageService    PageService
	sallaClient    client.SallaClient
}

func NewProductService(
	accountService AccountService,
	pageService PageService,
	sallaClient client.SallaClient,
) ProductService {
	return &productServiceImpl{
		accountService: accountService,
		pageService:    pageService,
		sallaClient:    sallaClient,
	}
}

func (s *productServiceImpl) List(ctx context.Context, account *model.Account, params *dto.ProductListParams) (json.RawMessage, error) {
	data, err := s.sallaClient.GetProducts(ctx, account.AccessToken, params)
	if err != nil {
		return nil, s.accountService.CheckSallaError(ctx, account, err)
	}
	return data, nil
}

func (s *productServiceImpl) Get(ctx context.Context, account *model.Account, productID string) (json.RawMessage, error) {
	data, err := s.sallaClient.GetProduct(ctx, account.AccessToken, productID)
	if err != nil {
		return nil, s.accountService.CheckSallaError(ctx, account, err)
	}
	return data, nil
}

// UpdateField writes a single product field back to Salla.
func (s *productServiceImpl) UpdateField(ctx context.Context, account *model.Account, productID, key, value string) (json.RawMessage, error) {
	data, err := s.sallaClient.UpdateProduct(ctx, account.AccessToken, productID, map[string]any{key: value})
	if err != nil {
		return nil, s.accountService.CheckSallaError(ctx, account, err)
	}
	return data, nil
}

// Home gathers what the merchant dashboard renders: the user, the
// navigation pages and a page of products.
func (s *productServiceImpl) Home(ctx context.Context, account *model.Account, params *dto.ProductListParams) (*dto.Home, error) {
	navPages, err := s.pageService.NavPages(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.List(ctx, account, params)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data       json.RawMessage `json:"data"`
		Pagination json.RawMessage `json:"pagination"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	return &dto.Home{
		User:            account.User,
		IsAuthenticated: true,
		NavPages:        navPages,
		Products:        envelope.Data,
		Pagination:      envelope.Pagination,
	}, nil
}

func (s *productServiceImpl) Settings(ctx context.Context, account *model.Account) (json.RawMessage, error) {
	data, err := s.sallaClient.GetAppSettings(ctx, account.AccessToken)
	if err != nil {
		return nil, s.accountService.CheckSallaError(ctx, account, err)
	}
	return data, nil
}

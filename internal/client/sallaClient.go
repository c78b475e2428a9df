package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/config"
	"tafaseel/internal/dto"
	"tafaseel/internal/model"
	"time"
)

// ErrUnauthorized means Salla rejected the access token. The caller is
// expected to clear the account's tokens.
var ErrUnauthorized = errors.New("salla rejected the access token")

type SallaClient interface {
	GetUser(ctx context.Context, accessToken string) (*model.SallaUserInfo, error)
	GetStore(ctx context.Context, accessToken string) (*model.SallaStoreInfo, error)
	GetProducts(ctx context.Context, accessToken string, params *dto.ProductListParams) (json.RawMessage, error)
	GetProduct(ctx context.Context, accessToken, productID string) (json.RawMessage, error)
	GetAppSubscriptions(ctx context.Context, accessToken string) ([]model.SallaSubscription, error)
	GetAppSettings(ctx context.Context, accessToken string) (json.RawMessage, error)
	UpdateProduct(ctx context.Context, accessToken, productID string, fields map[string]any) (json.RawMessage, error)
}

type sallaClientImpl struct {
	httpClient  *http.Client
	log         *slog.Logger
	baseApiURL  string
	accountsURL string
	appID       string
}

func NewSallaClient(sallaCfg *config.Salla, log *slog.Logger) SallaClient {
	return &sallaClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:         log,
		baseApiURL:  strings.TrimRight(sallaCfg.APIBaseURL, "/"),
		accountsURL: strings.TrimRight(sallaCfg.AccountsURL, "/"),
		appID:       sallaCfg.AppID,
	}
}

func (c *sallaClientImpl) GetUser(ctx context.Context, accessToken string) (*model.SallaUserInfo, error) {
	data, err := c.do(ctx, http.MethodGet, accessToken, c.accountsURL+"/oauth2/user/info", nil)
	if err != nil {
		return nil, err
	}
	var user model.SallaUserInfo
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("decode user info: %w", err))
	}
	return &user, nil
}

func (c *sallaClientImpl) GetStore(ctx context.Context, accessToken string) (*model.SallaStoreInfo, error) {
	data, err := c.do(ctx, http.MethodGet, accessToken, c.baseApiURL+"/store/info", nil)
	if err != nil {
		return nil, err
	}
	var store model.SallaStoreInfo
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("decode store info: %w", err))
	}
	return &store, nil
}

func (c *sallaClientImpl) GetProducts(ctx context.Context, accessToken string, params *dto.ProductListParams) (json.RawMessage, error) {
	if params == nil {
		params = &dto.ProductListParams{}
	}
	params.ApplyDefaults()

	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("per_page", strconv.Itoa(params.PerPage))
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}

	return c.do(ctx, http.MethodGet, accessToken, c.baseApiURL+"/products?"+q.Encode(), nil)
}

func (c *sallaClientImpl) GetProduct(ctx context.Context, accessToken, productID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, accessToken, c.baseApiURL+"/products/"+url.PathEscape(productID), nil)
}

func (c *sallaClientImpl) GetAppSubscriptions(ctx context.Context, accessToken string) ([]model.SallaSubscription, error) {
	data, err := c.do(ctx, http.MethodGet, accessToken, c.baseApiURL+"/apps/"+c.appID+"/subscriptions", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data []model.SallaSubscription `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("decode subscriptions: %w", err))
	}
	return envelope.Data, nil
}

func (c *sallaClientImpl) GetAppSettings(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, accessToken, c.baseApiURL+"/apps/"+c.appID+"/settings", nil)
}

func (c *sallaClientImpl) UpdateProduct(ctx context.Context, accessToken, productID string, fields map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, accessToken, c.baseApiURL+"/products/"+url.PathEscape(productID), fields)
}

// do sends the request and returns the response data. Object payloads are
// unwrapped from their "data" key, list payloads keep the whole envelope so
// pagination stays with them.
func (c *sallaClientImpl) do(ctx context.Context, method, accessToken, endpoint string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("http client do: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn("salla rejected token", "method", method, "url", endpoint)
		return nil, apperr.OAuthFailed(ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("salla endpoint failed",
			"method", method,
			"url", endpoint,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return nil, apperr.EndpointFailure(fmt.Errorf("%s %s returned %d", method, endpoint, resp.StatusCode))
	}

	return unwrapData(respBody)
}

func unwrapData(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperr.EndpointFailure(fmt.Errorf("decode response: %w", err))
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] == '[' {
		return body, nil
	}
	return envelope.Data, nil
}

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/config"
	"tafaseel/internal/model"
	"time"

	"golang.org/x/oauth2"
)

const offlineAccessScope = "offline_access"

type SallaOAuthClient interface {
	InstallationURL() string
	ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.OAuthToken, error)
}

type sallaOAuthClientImpl struct {
	httpClient *http.Client
	log        *slog.Logger
	oauth      *oauth2.Config
	installURL string
	appID      string
}

func NewSallaOAuthClient(sallaCfg *config.Salla, log *slog.Logger) SallaOAuthClient {
	accountsURL := strings.TrimRight(sallaCfg.AccountsURL, "/")
	return &sallaOAuthClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
		oauth: &oauth2.Config{
			ClientID:     sallaCfg.OAuthClientID,
			ClientSecret: sallaCfg.OAuthClientSecret,
			RedirectURL:  sallaCfg.RedirectURI,
			Scopes:       []string{offlineAccessScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   accountsURL + "/oauth2/auth",
				TokenURL:  accountsURL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		installURL: strings.TrimRight(sallaCfg.InstallBaseURL, "/"),
		appID:      sallaCfg.AppID,
	}
}

// InstallationURL is where merchants are sent to install the app.
func (c *sallaOAuthClientImpl) InstallationURL() string {
	return c.installURL + "/" + c.appID
}

func (c *sallaOAuthClientImpl) ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error) {
	tok, err := c.oauth.Exchange(c.context(ctx), code, oauth2.SetAuthURLParam("scope", offlineAccessScope))
	if err != nil {
		return nil, c.fail("authorization_code", err)
	}
	return toOAuthToken(tok), nil
}

func (c *sallaOAuthClientImpl) RefreshToken(ctx context.Context, refreshToken string) (*model.OAuthToken, error) {
	// A token without an access token is never valid, so the source
	// always goes to the token endpoint.
	tok, err := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, c.fail("refresh_token", err)
	}
	return toOAuthToken(tok), nil
}

func (c *sallaOAuthClientImpl) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *sallaOAuthClientImpl) fail(grantType string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		c.log.Error("salla oauth failed",
			"grant_type", grantType,
			"status", rerr.Response.StatusCode,
			"body", string(rerr.Body),
		)
		return apperr.OAuthFailed(fmt.Errorf("token endpoint returned %d", rerr.Response.StatusCode))
	}
	c.log.Error("salla oauth failed", "grant_type", grantType, "error", err)
	return apperr.OAuthFailed(fmt.Errorf("%s grant: %w", grantType, err))
}

// toOAuthToken keeps the raw response fields; the account expiry is
// decided by model.OAuthToken.Apply, not by the token lifetime.
func toOAuthToken(tok *oauth2.Token) *model.OAuthToken {
	out := &model.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	if v, ok := tok.Extra("expires_in").(float64); ok {
		out.ExpiresIn = int64(v)
	}
	if !tok.Expiry.IsZero() {
		out.Expires = tok.Expiry.Unix()
	}
	return out
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/config"
	"tafaseel/internal/dto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sallaConfig(url string) *config.Salla {
	return &config.Salla{
		AppID:             "1234",
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		RedirectURI:       "http://localhost/oauth/callback",
		AccountsURL:       url,
		APIBaseURL:        url + "/admin/v2",
		InstallBaseURL:    "https://s.salla.sa/apps/install",
	}
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "sqlite", dialector("sqlite://app.db").Name())
	assert.Equal(t, "sqlite", dialector("data/app.db").Name())
	assert.Equal(t, "sqlite", dialector("file::memory:?cache=shared").Name())
	assert.Equal(t, "mysql", dialector("user:pass@tcp(localhost:3306)/tafaseel?parseTime=true").Name())
}

func TestSallaOAuthClient_InstallationURL(t *testing.T) {
	c := NewSallaOAuthClient(sallaConfig("http://unused"), discardLogger())
	assert.Equal(t, "https://s.salla.sa/apps/install/1234", c.InstallationURL())
}

func TestSallaOAuthClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "offline_access", r.PostForm.Get("scope"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "http://localhost/oauth/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":1209600,"scope":"offline_access","token_type":"bearer"}`)
	}))
	defer srv.Close()

	c := NewSallaOAuthClient(sallaConfig(srv.URL), discardLogger())
	token, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "offline_access", token.Scope)
	assert.Equal(t, int64(1209600), token.ExpiresIn)
}

func TestSallaOAuthClient_RefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at-2","refresh_token":"rt-2","expires_in":1209600,"token_type":"bearer"}`)
	}))
	defer srv.Close()

	c := NewSallaOAuthClient(sallaConfig(srv.URL), discardLogger())
	token, err := c.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "at-2", token.AccessToken)
	assert.Equal(t, "rt-2", token.RefreshToken)
}

func TestSallaOAuthClient_ExchangeCodeWithoutAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"refresh_token":"rt"}`)
	}))
	defer srv.Close()

	c := NewSallaOAuthClient(sallaConfig(srv.URL), discardLogger())
	_, err := c.ExchangeCode(context.Background(), "the-code")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeOAuthFailed))
}

func TestSallaOAuthClient_RefreshTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"invalid_grant"}`)
	}))
	defer srv.Close()

	c := NewSallaOAuthClient(sallaConfig(srv.URL), discardLogger())
	_, err := c.RefreshToken(context.Background(), "old-refresh")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeOAuthFailed))
}

func TestSallaClient_GetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/user/info", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		io.WriteString(w, `{"status":200,"success":true,"data":{"id":181690847,"name":"Ahmed","email":"a@example.com","mobile":"+966500000000","role":"user","merchant":{"id":181690847,"username":"store"}}}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())
	user, err := c.GetUser(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "181690847", user.ID.String())
	assert.Equal(t, "Ahmed", user.Name)
	assert.Equal(t, float64(181690847), user.Merchant["id"])
}

func TestSallaClient_GetProductsKeepsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/v2/products", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "sale", q.Get("status"))
		assert.Empty(t, q.Get("keyword"))
		io.WriteString(w, `{"status":200,"success":true,"data":[{"id":1,"name":"Shirt"}],"pagination":{"count":1,"total":1}}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())
	data, err := c.GetProducts(context.Background(), "at", &dto.ProductListParams{Status: "sale"})
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Contains(t, envelope, "pagination")
	assert.Len(t, envelope["data"], 1)
}

func TestSallaClient_GetProductUnwrapsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/v2/products/42", r.URL.Path)
		io.WriteString(w, `{"status":200,"success":true,"data":{"id":42,"name":"Shirt"}}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())
	data, err := c.GetProduct(context.Background(), "at", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"name":"Shirt"}`, string(data))
}

func TestSallaClient_UpdateProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"metadata_title":"Best shirt"}`, string(body))
		io.WriteString(w, `{"status":201,"success":true,"data":{"id":42,"metadata_title":"Best shirt"}}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())
	_, err := c.UpdateProduct(context.Background(), "at", "42", map[string]any{"metadata_title": "Best shirt"})
	require.NoError(t, err)
}

func TestSallaClient_GetAppSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/v2/apps/1234/subscriptions", r.URL.Path)
		io.WriteString(w, `{"status":200,"success":true,"data":[{"id":7,"plan_name":"Pro","plan_type":"recurring","plan_period":1,"price":"49.00","start_date":"2024-01-01","end_date":"2024-02-01","features":[{"key":"prompts","quantity":300}]}]}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())
	subs, err := c.GetAppSubscriptions(context.Background(), "at")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Pro", subs[0].PlanName)
	assert.Equal(t, "49", subs[0].Price.String())
	limit, ok := subs[0].Feature("prompts")
	assert.True(t, ok)
	assert.Equal(t, 300, limit)
}

func TestSallaClient_Errors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, `{"status":401,"success":false}`)
	}))
	defer srv.Close()

	c := NewSallaClient(sallaConfig(srv.URL), discardLogger())

	_, err := c.GetAppSettings(context.Background(), "at")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, apperr.Is(err, apperr.CodeOAuthFailed))

	status = http.StatusUnprocessableEntity
	_, err = c.GetStore(context.Background(), "at")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, apperr.Is(err, apperr.CodeEndpointFailure))
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 70, req.MaxTokens)
		assert.Equal(t, float64(0), req.Temperature)
		assert.Equal(t, float64(1), req.TopP)
		assert.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "write a title", req.Messages[0].Content)

		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  A great shirt \n"}}],"usage":{"total_tokens":33}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.LLM{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-test"}, discardLogger())
	out, err := c.Complete(context.Background(), CompletionRequest{Prompt: "write a title", MaxTokens: 70})
	require.NoError(t, err)
	assert.Equal(t, "A great shirt", out.Text)
	assert.Equal(t, 33, out.TotalTokens)
	assert.Contains(t, string(out.Raw), "total_tokens")
}

func TestOpenAIClient_CompleteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.LLM{BaseURL: srv.URL, Model: "gpt-test"}, discardLogger())
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	assert.Error(t, err)
}

func TestNewLanguageModel_UnknownProvider(t *testing.T) {
	_, err := NewLanguageModel(context.Background(), &config.LLM{Provider: "bard"}, discardLogger())
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	m, err := NewMailer(context.Background(), &config.Mail{Driver: "log", From: "no-reply@example.com"}, log)
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), MailMessage{To: "merchant@example.com", Subject: "Welcome"}))

	out := buf.String()
	assert.True(t, strings.Contains(out, "merchant@example.com"))
	assert.True(t, strings.Contains(out, "Welcome"))
}

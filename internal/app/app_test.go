package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"tafaseel/internal/config"
	"tafaseel/internal/model"
	"tafaseel/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	*httptest.Server
	mu      sync.Mutex
	updates []map[string]any
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	f := &fakeUpstream{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":1209600,"scope":"offline_access"}`)
	})
	mux.HandleFunc("GET /oauth2/user/info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"success":true,"data":{"id":555,"name":"Sara","email":"sara@example.com","merchant":{"id":555}}}`)
	})
	mux.HandleFunc("GET /admin/v2/store/info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"data":{"id":555,"name":"Sara Store","currency":"SAR"}}`)
	})
	mux.HandleFunc("GET /admin/v2/apps/1234/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"data":[{"id":9,"plan_name":"Pro","plan_type":"recurring","plan_period":1,"price":49,"features":[{"key":"prompts","quantity":2}]}]}`)
	})
	mux.HandleFunc("GET /admin/v2/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"data":[{"id":1,"name":"Shirt"}],"pagination":{"count":1,"total":1}}`)
	})
	mux.HandleFunc("GET /admin/v2/products/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"data":{"id":1,"name":"Shirt"}}`)
	})
	mux.HandleFunc("PUT /admin/v2/products/1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.updates = append(f.updates, body)
		f.mu.Unlock()
		fmt.Fprint(w, `{"status":201,"data":{"id":1}}`)
	})
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  A soft cotton shirt.  "}}],"usage":{"total_tokens":21}}`)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestApp(t *testing.T, upstream *fakeUpstream, opts ...func(*config.Config)) (*App, http.Handler) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	cfg := &config.Config{
		BaseURL:     "http://localhost:8080",
		DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Salla: config.Salla{
			AppID:             "1234",
			OAuthClientID:     "client-id",
			OAuthClientSecret: "client-secret",
			AccountsURL:       upstream.URL,
			APIBaseURL:        upstream.URL + "/admin/v2",
			InstallBaseURL:    "https://s.salla.sa/apps/install",
		},
		LLM:       config.LLM{Provider: "openai", BaseURL: upstream.URL, Model: "gpt-4o-mini", MaxTokens: 256},
		Plan:      config.Plan{PromptsFeatureKey: "prompts", DefaultPromptsLimit: 100, TrialPromptsLimit: 10, TrialDays: 7},
		RateLimit: config.RateLimit{PromptsPerMinute: 60, Burst: 10},
		Mail:      config.Mail{Driver: "log", From: "no-reply@example.com"},
		Scheduler: config.Scheduler{RefreshCron: "0 0 * * *"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := New(context.Background(), cfg, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return a, a.Server().Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMerchantFlow(t *testing.T) {
	upstream := newFakeUpstream(t)
	_, h := newTestApp(t, upstream)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, h, http.MethodGet, "/install", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://s.salla.sa/apps/install/1234", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/oauth/callback?code=abc", "")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "auth_token", cookie.Name)

	rec = do(t, h, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Subscription struct {
			PlanName     string `json:"plan_name"`
			PromptsLimit int    `json:"prompts_limit"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Sara", me.User.Name)
	assert.Equal(t, "Pro", me.Subscription.PlanName)
	assert.Equal(t, 2, me.Subscription.PromptsLimit)

	rec = do(t, h, http.MethodGet, "/api/products?page=1", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shirt")

	rec = do(t, h, http.MethodGet, "/api/home", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pagination":{"count":1,"total":1}`)

	rec = do(t, h, http.MethodPost, "/api/prompts", `{"product_id":"1","product_name":"Shirt","prompt_type":"description","keywords_list":["cotton"]}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var generated struct {
		ID     uint   `json:"id"`
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	assert.Equal(t, "A soft cotton shirt.", generated.Answer)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/prompts/%d/accept", generated.ID), "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, upstream.updates, 1)
	assert.Equal(t, map[string]any{"description": "A soft cotton shirt."}, upstream.updates[0])

	rec = do(t, h, http.MethodGet, "/api/prompts?product_id=1&prompt_type=description", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, true, history[0]["is_accepted"])

	rec = do(t, h, http.MethodPost, "/api/prompts", `{"product_id":"1","product_name":"Shirt","prompt_type":"title"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/prompts", `{"product_id":"1","product_name":"Shirt","prompt_type":"title"}`, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have reached your plan limits")

	rec = do(t, h, http.MethodGet, "/api/plan/usage", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"used":2`)
	assert.Contains(t, rec.Body.String(), `"limit":2`)
}

func TestAPIRequiresAuthentication(t *testing.T) {
	_, h := newTestApp(t, newFakeUpstream(t))

	rec := do(t, h, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication credentials were not provided.")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Token nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token.")
}

func TestPromptValidation(t *testing.T) {
	upstream := newFakeUpstream(t)
	_, h := newTestApp(t, upstream)

	rec := do(t, h, http.MethodGet, "/oauth/callback?code=abc", "")
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := rec.Result().Cookies()[0]

	rec = do(t, h, http.MethodPost, "/api/prompts", `{"product_id":"1","product_name":"Shirt","prompt_type":"poem"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt_type")

	rec = do(t, h, http.MethodPost, "/api/prompts/999/decline", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOAuthCallbackWithoutCode(t *testing.T) {
	_, h := newTestApp(t, newFakeUpstream(t))

	rec := do(t, h, http.MethodGet, "/oauth/callback", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Salla Oauth Failed.")
}

func TestWebhookRoutes(t *testing.T) {
	_, h := newTestApp(t, newFakeUpstream(t))

	rec := do(t, h, http.MethodPost, "/webhooks/salla", `{"event":"app.feedback.created","merchant":1,"data":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Event app.feedback.created not found."}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/webhooks/salla", `{"event":"app.store.authorize","merchant":555,"data":{"access_token":"at-2","refresh_token":"rt-2"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/webhooks/salla", `{"event":"app.settings.updated","merchant":555,"data":{"settings":{"email":"sara@shop.example","password":"long-enough"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/auth/login", `{"email":"sara@shop.example","password":"long-enough"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, rec.Result().Cookies(), 1)

	rec = do(t, h, http.MethodPost, "/auth/login", `{"email":"sara@shop.example","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/webhooks/salla/settings/validate", `{"event":"app.settings.validation","merchant":555,"data":{"settings":{"email":"nope","password":"short"}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)
	assert.Contains(t, rec.Body.String(), `"password"`)

	rec = do(t, h, http.MethodPost, "/webhooks/salla/settings/validate", `{"merchant":555,"data":{"email":"ok@example.com"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookBadSignatureIsLogged(t *testing.T) {
	a, h := newTestApp(t, newFakeUpstream(t), func(cfg *config.Config) {
		cfg.Salla.WebhookSecret = "top-secret"
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/salla",
		strings.NewReader(`{"event":"app.store.authorize","merchant":555,"data":{"access_token":"stolen"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Salla-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	logs, err := a.WebhookLogs.ListByMerchant(context.Background(), "555", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "app.store.authorize", logs[0].Event)
	assert.Equal(t, http.StatusUnauthorized, logs[0].StatusCode)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), logs[0].RequestID)
}

func TestPages(t *testing.T) {
	a, h := newTestApp(t, newFakeUpstream(t))
	body := "# Frequently asked"

	require.NoError(t, a.Pages.Create(context.Background(), &model.StaticPage{
		Title: "FAQ",
		Slug:  "faq",
		MD:    &body,
		IsNav: true,
	}))

	rec := do(t, h, http.MethodGet, "/pages/faq", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Frequently asked</h1>")

	rec = do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/pages/faq/"`)
	assert.Contains(t, rec.Body.String(), `href="https://s.salla.sa/apps/install/1234"`)

	rec = do(t, h, http.MethodGet, "/pages/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulerRegistersRefreshTask(t *testing.T) {
	a, _ := newTestApp(t, newFakeUpstream(t))

	sched, err := a.Scheduler()
	require.NoError(t, err)
	require.Len(t, sched.Tasks(), 1)
	assert.NoError(t, sched.RunTaskNow(context.Background(), "refresh_tokens"))
}

func TestSchedulerRunsRefreshWithoutCron(t *testing.T) {
	a, _ := newTestApp(t, newFakeUpstream(t), func(cfg *config.Config) {
		cfg.Scheduler.RefreshCron = ""
	})

	sched, err := a.Scheduler()
	require.NoError(t, err)
	assert.NoError(t, sched.RunTaskNow(context.Background(), "refresh_tokens"))
}

func TestDashboard(t *testing.T) {
	_, h := newTestApp(t, newFakeUpstream(t))

	rec := do(t, h, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/dashboard", "", &http.Cookie{Name: "auth_token", Value: "garbage"})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "auth_token", cleared[0].Name)
	assert.Empty(t, cleared[0].Value)

	rec = do(t, h, http.MethodGet, "/oauth/callback?code=abc", "")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	cookie := rec.Result().Cookies()[0]

	rec = do(t, h, http.MethodGet, "/dashboard", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<h1>Sara</h1>")
	assert.Contains(t, rec.Body.String(), "Pro: 0 / 2 prompts")
}

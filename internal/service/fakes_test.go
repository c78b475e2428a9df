package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"tafaseel/internal/apperr"
	"tafaseel/internal/client"
	"tafaseel/internal/config"
	"tafaseel/internal/dto"
	"tafaseel/internal/model"
	"tafaseel/internal/prompt"
	"tafaseel/internal/repository"
	"tafaseel/internal/testutil"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSalla struct {
	mu       sync.Mutex
	user     *model.SallaUserInfo
	store    *model.SallaStoreInfo
	subs     []model.SallaSubscription
	products json.RawMessage
	settings json.RawMessage
	err      error
	updates  []map[string]any
}

func (f *fakeSalla) GetUser(ctx context.Context, accessToken string) (*model.SallaUserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeSalla) GetStore(ctx context.Context, accessToken string) (*model.SallaStoreInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

func (f *fakeSalla) GetProducts(ctx context.Context, accessToken string, params *dto.ProductListParams) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeSalla) GetProduct(ctx context.Context, accessToken, productID string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"id":"` + productID + `"}`), nil
}

func (f *fakeSalla) GetAppSubscriptions(ctx context.Context, accessToken string) ([]model.SallaSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs, nil
}

func (f *fakeSalla) GetAppSettings(ctx context.Context, accessToken string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

func (f *fakeSalla) UpdateProduct(ctx context.Context, accessToken, productID string, fields map[string]any) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	return json.RawMessage(`{}`), nil
}

type fakeOAuth struct {
	token     *model.OAuthToken
	failFor   map[string]bool
	refreshed []string
}

func (f *fakeOAuth) InstallationURL() string {
	return "https://s.salla.sa/apps/install/app-1"
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error) {
	return f.token, nil
}

func (f *fakeOAuth) RefreshToken(ctx context.Context, refreshToken string) (*model.OAuthToken, error) {
	f.refreshed = append(f.refreshed, refreshToken)
	if f.failFor[refreshToken] {
		return nil, apperr.OAuthFailed(errors.New("invalid_grant"))
	}
	return &model.OAuthToken{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		TokenType:    "bearer",
		Scope:        "offline_access",
	}, nil
}

type fakeLLM struct {
	text     string
	err      error
	requests []client.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req client.CompletionRequest) (*client.Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &client.Completion{Text: f.text, TotalTokens: 42, Raw: json.RawMessage(`{"id":"cmpl"}`)}, nil
}

type fakeMailer struct {
	sent []client.MailMessage
}

func (f *fakeMailer) Send(ctx context.Context, msg client.MailMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

type harness struct {
	db     *gorm.DB
	salla  *fakeSalla
	oauth  *fakeOAuth
	llm    *fakeLLM
	mailer *fakeMailer

	accountRepo      repository.AccountRepository
	userRepo         repository.UserRepository
	storeRepo        repository.StoreRepository
	promptRepo       repository.PromptRepository
	subscriptionRepo repository.SubscriptionRepository
	templateRepo     repository.PromptTemplateRepository
	pageRepo         repository.StaticPageRepository

	accounts AccountService
	auth     AuthService
	plan     PlanService
	pages    PageService
	products ProductService
	prompts  PromptService
	webhooks WebhookService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	log := testutil.Logger()

	h := &harness{
		db: db,
		salla: &fakeSalla{
			user: &model.SallaUserInfo{
				ID:       "1001",
				Name:     "Ahmed",
				Email:    "ahmed@example.com",
				Merchant: map[string]any{"id": float64(1001)},
			},
			store: &model.SallaStoreInfo{
				ID:       "1001",
				Name:     "Ahmed Store",
				Currency: "SAR",
				Licenses: json.RawMessage(`{"cr":"123"}`),
			},
			products: json.RawMessage(`{"status":200,"data":[{"id":1}],"pagination":{"count":1}}`),
			settings: json.RawMessage(`{"email":"ahmed@example.com"}`),
		},
		oauth:  &fakeOAuth{failFor: map[string]bool{}},
		llm:    &fakeLLM{text: "A soft cotton shirt"},
		mailer: &fakeMailer{},

		accountRepo:      repository.NewAccountRepository(db),
		userRepo:         repository.NewUserRepository(db),
		storeRepo:        repository.NewStoreRepository(db),
		promptRepo:       repository.NewPromptRepository(db),
		subscriptionRepo: repository.NewSubscriptionRepository(db),
		templateRepo:     repository.NewPromptTemplateRepository(db),
		pageRepo:         repository.NewStaticPageRepository(db),
	}

	planCfg := &config.Plan{
		PromptsFeatureKey:   "prompts",
		DefaultPromptsLimit: 100,
		TrialPromptsLimit:   2,
		TrialDays:           7,
	}

	h.plan = NewPlanService(h.subscriptionRepo, h.promptRepo, planCfg)
	h.accounts = NewAccountService(db, h.accountRepo, h.userRepo, h.storeRepo, h.plan, h.oauth, h.salla, h.mailer, log)
	h.auth = NewAuthService(h.accounts, h.accountRepo, h.userRepo, h.oauth)
	h.pages = NewPageService(h.pageRepo)
	h.products = NewProductService(h.accounts, h.pages, h.salla)
	h.prompts = NewPromptService(h.promptRepo, prompt.NewGenerator(h.templateRepo, 512), h.llm, h.products, log)
	h.webhooks = NewWebhookService(db, h.userRepo, h.accountRepo, repository.NewWebhookLogRepository(db), h.accounts, h.plan, "", log)

	require.NoError(t, h.templateRepo.Seed(context.Background()))
	return h
}

// merchant creates a user with an account and a store whose Salla id is
// the given merchant id.
func (h *harness) merchant(t *testing.T, merchantID string) (*model.SallaUser, *model.Account) {
	t.Helper()
	user, account := testutil.CreateUser(t, h.db, merchantID)
	require.NoError(t, h.storeRepo.Upsert(context.Background(), nil, &model.SallaStore{
		UserID:  user.ID,
		SallaID: model.SallaID(merchantID),
		Name:    "Store " + merchantID,
	}))
	return user, account
}

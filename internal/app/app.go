package app

import (
	"context"
	"fmt"
	"log/slog"
	"tafaseel/internal/apperr"
	"tafaseel/internal/auth"
	"tafaseel/internal/client"
	"tafaseel/internal/config"
	"tafaseel/internal/prompt"
	"tafaseel/internal/repository"
	"tafaseel/internal/scheduler"
	"tafaseel/internal/server"
	"tafaseel/internal/service"

	"gorm.io/gorm"
)

// App holds the wired dependencies shared by the api server and the
// manage commands.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *slog.Logger

	Templates   repository.PromptTemplateRepository
	WebhookLogs repository.WebhookLogRepository

	Accounts service.AccountService
	Pages    service.PageService
	Services *server.Services
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := client.InitDBClient(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	sallaClient := client.NewSallaClient(&cfg.Salla, log)
	oauthClient := client.NewSallaOAuthClient(&cfg.Salla, log)
	languageModel, err := client.NewLanguageModel(ctx, &cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("init language model: %w", err)
	}
	mailer, err := client.NewMailer(ctx, &cfg.Mail, log)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	templateRepo := repository.NewPromptTemplateRepository(db)
	pageRepo := repository.NewStaticPageRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	planService := service.NewPlanService(subscriptionRepo, promptRepo, &cfg.Plan)
	accountService := service.NewAccountService(db, accountRepo, userRepo, storeRepo, planService, oauthClient, sallaClient, mailer, log)
	authService := service.NewAuthService(accountService, accountRepo, userRepo, oauthClient)
	pageService := service.NewPageService(pageRepo)
	productService := service.NewProductService(accountService, pageService, sallaClient)
	promptService := service.NewPromptService(promptRepo, prompt.NewGenerator(templateRepo, cfg.LLM.MaxTokens), languageModel, productService, log)
	webhookService := service.NewWebhookService(db, userRepo, accountRepo, webhookLogRepo, accountService, planService, cfg.Salla.WebhookSecret, log)

	if err := templateRepo.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed prompt templates: %w", err)
	}

	return &App{
		Config:      cfg,
		DB:          db,
		Log:         log,
		Templates:   templateRepo,
		WebhookLogs: webhookLogRepo,
		Accounts:    accountService,
		Pages:       pageService,
		Services: &server.Services{
			Auth:     authService,
			Plan:     planService,
			Pages:    pageService,
			Products: productService,
			Prompts:  promptService,
			Webhooks: webhookService,
			Settings: service.NewSettingsService(apperr.NewValidator()),
		},
	}, nil
}

func (a *App) Server() *server.Server {
	return server.NewServer(a.Config, a.Services, auth.NewCookieManager(&a.Config.Session, a.Log), a.Log)
}

// Scheduler returns a scheduler with every background task registered.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.Log)
	if err := s.Register(scheduler.RefreshTokens(&a.Config.Scheduler, a.Accounts)); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

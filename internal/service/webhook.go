package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"tafaseel/internal/apperr"
	"tafaseel/internal/model"
	"tafaseel/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventAuthorized            = "app.store.authorize"
	EventSettingsUpdated       = "app.settings.updated"
	EventTrialStarted          = "app.trial.started"
	EventTrialExpired          = "app.trial.expired"
	EventSubscriptionStarted   = "app.subscription.started"
	EventSubscriptionExpired   = "app.subscription.expired"
	EventSubscriptionCancelled = "app.subscription.canceled"
	EventAppUninstalled        = "app.uninstalled"
)

type WebhookService interface {
	VerifySignature(body []byte, signature string) error
	Process(ctx context.Context, requestID string, body []byte) (map[string]any, int)
	Reject(ctx context.Context, requestID string, body []byte, reason error)
}

// webhookSkip is a failure Salla should not retry: it is answered with 200.
type webhookSkip string

func (e webhookSkip) Error() string { return string(e) }

type webhookCall struct {
	payload *model.WebhookPayload
	user    *model.SallaUser
}

type webhookHandler func(ctx context.Context, call *webhookCall) error

type webhookServiceImpl struct {
	db             *gorm.DB
	userRepo       repository.UserRepository
	accountRepo    repository.AccountRepository
	webhookLogRepo repository.WebhookLogRepository
	accountService AccountService
	planService    PlanService
	secret         string
	log            *slog.Logger
	handlers       map[string]webhookHandler
}

func NewWebhookService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	webhookLogRepo repository.WebhookLogRepository,
	accountService AccountService,
	planService PlanService,
	secret string,
	log *slog.Logger,
) WebhookService {
	s := &webhookServiceImpl{
		db:             db,
		userRepo:       userRepo,
		accountRepo:    accountRepo,
		webhookLogRepo: webhookLogRepo,
		accountService: accountService,
		planService:    planService,
		secret:         secret,
		log:            log,
	}
	s.handlers = map[string]webhookHandler{
		EventAuthorized:            s.authorized,
		EventSettingsUpdated:       s.settingsUpdated,
		EventTrialStarted:          s.trialStarted,
		EventTrialExpired:          s.stopSubscriptions,
		EventSubscriptionStarted:   s.subscriptionStarted,
		EventSubscriptionExpired:   s.stopSubscriptions,
		EventSubscriptionCancelled: s.stopSubscriptions,
		EventAppUninstalled:        s.stopSubscriptions,
	}
	return s
}

// VerifySignature checks the hex HMAC-SHA256 of the body Salla sends in
// X-Salla-Signature. Without a configured secret every call passes.
func (s *webhookServiceImpl) VerifySignature(body []byte, signature string) error {
	if s.secret == "" {
		return nil
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return apperr.Unauthenticated("Invalid webhook signature.")
	}
	return nil
}

// Process runs the handler for the event and records the outcome.
func (s *webhookServiceImpl) Process(ctx context.Context, requestID string, body []byte) (map[string]any, int) {
	var payload model.WebhookPayload
	response, status := s.dispatch(ctx, &payload, body)
	s.record(ctx, requestID, &payload, body, response, status)
	return response, status
}

// Reject records a call that failed the signature check. The body is not
// trusted, so it is only parsed to label the log row.
func (s *webhookServiceImpl) Reject(ctx context.Context, requestID string, body []byte, reason error) {
	var payload model.WebhookPayload
	_ = json.Unmarshal(body, &payload)

	response := map[string]any{"status": "error", "message": reason.Error()}
	s.record(ctx, requestID, &payload, body, response, http.StatusUnauthorized)
}

func (s *webhookServiceImpl) record(ctx context.Context, requestID string, payload *model.WebhookPayload, body []byte, response map[string]any, status int) {
	data := payload.Data
	if len(data) == 0 {
		data = body
	}
	if !json.Valid(data) {
		data, _ = json.Marshal(string(data))
	}

	entry := &model.SallaWebhookLog{
		RequestID:  requestID,
		Event:      payload.Event,
		MerchantID: payload.Merchant.String(),
		Data:       datatypes.JSON(data),
		Response:   datatypes.JSONMap(response),
		StatusCode: status,
	}
	if err := s.webhookLogRepo.Create(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "could not record webhook", "event", payload.Event, "error", err)
	}

	s.log.InfoContext(ctx, "webhook processed",
		"event", payload.Event,
		"merchant", payload.Merchant,
		"status_code", status,
		"response", response["status"],
	)
}

func (s *webhookServiceImpl) dispatch(ctx context.Context, payload *model.WebhookPayload, body []byte) (map[string]any, int) {
	err := s.handle(ctx, payload, body)

	var skip webhookSkip
	switch {
	case err == nil:
		return map[string]any{"status": "success"}, http.StatusOK
	case errors.As(err, &skip):
		return map[string]any{"status": skip.Error()}, http.StatusOK
	default:
		return map[string]any{"status": "error", "message": err.Error()}, http.StatusBadRequest
	}
}

func (s *webhookServiceImpl) handle(ctx context.Context, payload *model.WebhookPayload, body []byte) error {
	if err := json.Unmarshal(body, payload); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	handler, ok := s.handlers[payload.Event]
	if !ok {
		return webhookSkip(fmt.Sprintf("Event %s not found.", payload.Event))
	}

	user, err := s.userRepo.GetByStoreSallaID(ctx, payload.Merchant.String())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil && payload.Event != EventAuthorized {
		return webhookSkip("User not found")
	}

	return handler(ctx, &webhookCall{payload: payload, user: user})
}

func (s *webhookServiceImpl) authorized(ctx context.Context, call *webhookCall) error {
	var token model.OAuthToken
	if err := json.Unmarshal(call.payload.Data, &token); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return apperr.WebhookFailure("access_token is required")
	}

	if call.user == nil {
		_, err := s.accountService.Provision(ctx, &token)
		return err
	}

	account, err := s.accountRepo.GetByUserID(ctx, call.user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = &model.Account{UserID: &call.user.ID}
	} else if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	_, err = s.accountService.StoreTokens(ctx, nil, &token, account)
	return err
}

func (s *webhookServiceImpl) settingsUpdated(ctx context.Context, call *webhookCall) error {
	var update model.SettingsUpdate
	if err := json.Unmarshal(call.payload.Data, &update); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	var passwordHash string
	if update.Settings.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(update.Settings.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	return s.userRepo.UpdateCredentials(ctx, nil, call.user.ID, update.Settings.Email, passwordHash)
}

func (s *webhookServiceImpl) trialStarted(ctx context.Context, call *webhookCall) error {
	return s.startSubscription(ctx, call, true)
}

func (s *webhookServiceImpl) subscriptionStarted(ctx context.Context, call *webhookCall) error {
	return s.startSubscription(ctx, call, false)
}

func (s *webhookServiceImpl) startSubscription(ctx context.Context, call *webhookCall, isTrial bool) error {
	var sub model.SallaSubscription
	if err := json.Unmarshal(call.payload.Data, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planService.StartSubscription(ctx, tx, call.user.ID, &sub, call.payload.Data, isTrial)
	})
}

func (s *webhookServiceImpl) stopSubscriptions(ctx context.Context, call *webhookCall) error {
	return s.planService.StopSubscriptions(ctx, nil, call.user.ID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"tafaseel/internal/apperr"
	"tafaseel/internal/client"
	"tafaseel/internal/model"
	"tafaseel/internal/repository"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AccountService interface {
	StoreTokens(ctx context.Context, tx *gorm.DB, token *model.OAuthToken, existing *model.Account) (*model.Account, error)
	Provision(ctx context.Context, token *model.OAuthToken) (*model.Account, error)
	GetAlive(ctx context.Context, publicToken string) (*model.Account, error)
	Refresh(ctx context.Context, account *model.Account) error
	RefreshExpiring(ctx context.Context, window time.Duration) (int, error)
	ClearTokens(ctx context.Context, account *model.Account) error
	CheckSallaError(ctx context.Context, account *model.Account, err error) error
}

type accountServiceImpl struct {
	db          *gorm.DB
	accountRepo repository.AccountRepository
	userRepo    repository.UserRepository
	storeRepo   repository.StoreRepository
	planService PlanService
	oauthClient client.SallaOAuthClient
	sallaClient client.SallaClient
	mailer      client.Mailer
	log         *slog.Logger
	now         func() time.Time
}

func NewAccountService(
	db *gorm.DB,
	accountRepo repository.AccountRepository,
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	planService PlanService,
	oauthClient client.SallaOAuthClient,
	sallaClient client.SallaClient,
	mailer client.Mailer,
	log *slog.Logger,
) AccountService {
	return &accountServiceImpl{
		db:          db,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		storeRepo:   storeRepo,
		planService: planService,
		oauthClient: oauthClient,
		sallaClient: sallaClient,
		mailer:      mailer,
		log:         log,
		now:         time.Now,
	}
}

// StoreTokens writes the token onto existing, or onto a new account when
// existing is nil.
func (s *accountServiceImpl) StoreTokens(ctx context.Context, tx *gorm.DB, token *model.OAuthToken, existing *model.Account) (*model.Account, error) {
	account := existing
	if account == nil {
		account = &model.Account{}
	}
	token.Apply(account, s.now())

	var err error
	if account.ID == 0 {
		err = s.accountRepo.Create(ctx, tx, account)
	} else {
		err = s.accountRepo.Save(ctx, tx, account)
	}
	if err != nil {
		return nil, fmt.Errorf("store account tokens: %w", err)
	}

	return account, nil
}

// Provision connects a merchant from a fresh token: it pulls the user and
// store from Salla, stores the token on the user's account and seeds the
// first subscription. A returning merchant keeps their account and public
// token.
func (s *accountServiceImpl) Provision(ctx context.Context, token *model.OAuthToken) (*model.Account, error) {
	info, err := s.sallaClient.GetUser(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("get salla user: %w", err)
	}
	storeInfo, err := s.sallaClient.GetStore(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("get salla store: %w", err)
	}

	user, err := s.userRepo.GetBySallaID(ctx, info.ID.String())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	isNew := user == nil

	var existing *model.Account
	if !isNew {
		existing, err = s.accountRepo.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get account: %w", err)
		}
	}

	var subscriptions []model.SallaSubscription
	if isNew {
		subscriptions, err = s.sallaClient.GetAppSubscriptions(ctx, token.AccessToken)
		if err != nil {
			s.log.WarnContext(ctx, "could not load app subscriptions", "salla_id", info.ID, "error", err)
		}
	}

	var account *model.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isNew {
			user = &model.SallaUser{
				SallaID:  info.ID,
				Name:     info.Name,
				Email:    info.Email,
				Mobile:   info.Mobile,
				Role:     info.Role,
				Merchant: datatypes.JSONMap(info.Merchant),
			}
			if err := s.userRepo.Create(ctx, tx, user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		} else {
			user.Name = info.Name
			user.Mobile = info.Mobile
			user.Merchant = datatypes.JSONMap(info.Merchant)
			if user.Email == "" {
				user.Email = info.Email
			}
			if err := s.userRepo.Save(ctx, tx, user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		if existing == nil {
			existing = &model.Account{UserID: &user.ID}
		}
		var err error
		account, err = s.StoreTokens(ctx, tx, token, existing)
		if err != nil {
			return err
		}

		store := &model.SallaStore{
			UserID:      user.ID,
			SallaID:     storeInfo.ID,
			Name:        storeInfo.Name,
			Email:       storeInfo.Email,
			Avatar:      storeInfo.Avatar,
			Plan:        storeInfo.Plan,
			Status:      storeInfo.Status,
			Verified:    storeInfo.Verified,
			Currency:    storeInfo.Currency,
			Domain:      storeInfo.Domain,
			Description: storeInfo.Description,
			Licenses:    datatypes.JSON(storeInfo.Licenses),
			Social:      datatypes.JSON(storeInfo.Social),
		}
		if err := s.storeRepo.Upsert(ctx, tx, store); err != nil {
			return fmt.Errorf("upsert store: %w", err)
		}

		if len(subscriptions) > 0 {
			sub := subscriptions[0]
			if err := s.planService.StartSubscription(ctx, tx, user.ID, &sub, nil, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	account.User = user
	if isNew {
		s.sendWelcome(ctx, user)
	}

	s.log.InfoContext(ctx, "merchant provisioned", "salla_id", user.SallaID, "new", isNew)
	return account, nil
}

func (s *accountServiceImpl) sendWelcome(ctx context.Context, user *model.SallaUser) {
	if user.Email == "" {
		return
	}
	err := s.mailer.Send(ctx, client.MailMessage{
		To:      user.Email,
		Subject: "Welcome to Tafaseel",
		Text:    fmt.Sprintf("Hi %s,\n\nTafaseel is now installed on your store. Open the app from your Salla dashboard to start writing product copy.", user.Name),
	})
	if err != nil {
		s.log.WarnContext(ctx, "welcome email failed", "salla_id", user.SallaID, "error", err)
	}
}

// GetAlive loads the account and refreshes its tokens when they expired.
func (s *accountServiceImpl) GetAlive(ctx context.Context, publicToken string) (*model.Account, error) {
	account, err := s.accountRepo.GetByPublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	if !account.IsAlive(s.now()) {
		if err := s.Refresh(ctx, account); err != nil {
			return nil, err
		}
	}

	return account, nil
}

func (s *accountServiceImpl) Refresh(ctx context.Context, account *model.Account) error {
	if account.RefreshToken == "" {
		return apperr.OAuthFailed(fmt.Errorf("account %d has no refresh token", account.ID))
	}

	token, err := s.oauthClient.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh account %d: %w", account.ID, err)
	}

	_, err = s.StoreTokens(ctx, nil, token, account)
	return err
}

// RefreshExpiring refreshes every account expiring within window. A failing
// account does not stop the others.
func (s *accountServiceImpl) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	accounts, err := s.accountRepo.ListExpiring(ctx, s.now().Add(window))
	if err != nil {
		return 0, fmt.Errorf("list expiring accounts: %w", err)
	}

	var (
		refreshed int
		errs      []error
	)
	for _, account := range accounts {
		if err := s.Refresh(ctx, account); err != nil {
			s.log.ErrorContext(ctx, "token refresh failed", "account_id", account.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		refreshed++
	}

	s.log.InfoContext(ctx, "tokens refreshed", "refreshed", refreshed, "failed", len(errs))
	return refreshed, errors.Join(errs...)
}

func (s *accountServiceImpl) ClearTokens(ctx context.Context, account *model.Account) error {
	if err := s.accountRepo.ClearTokens(ctx, account.ID); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	account.AccessToken = ""
	account.RefreshToken = ""
	return nil
}

// CheckSallaError clears the account's tokens when Salla rejected them and
// returns err unchanged.
func (s *accountServiceImpl) CheckSallaError(ctx context.Context, account *model.Account, err error) error {
	if err == nil || !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	if clearErr := s.ClearTokens(ctx, account); clearErr != nil {
		s.log.ErrorContext(ctx, "could not clear rejected tokens", "account_id", account.ID, "error", clearErr)
	}
	return err
}

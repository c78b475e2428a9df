package service

import (
	"context"
	"errors"
	"fmt"
	"tafaseel/internal/apperr"
	"tafaseel/internal/client"
	"tafaseel/internal/model"
	"tafaseel/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	InstallationURL() string
	HandleCallback(ctx context.Context, code string) (*model.Account, error)
	Login(ctx context.Context, email, password string) (*model.Account, error)
	Authenticate(ctx context.Context, publicToken string) (*model.SallaUser, *model.Account, error)
}

type authServiceImpl struct {
	accountService AccountService
	accountRepo    repository.AccountRepository
	userRepo       repository.UserRepository
	oauthClient    client.SallaOAuthClient
}

func NewAuthService(
	accountService AccountService,
	accountRepo repository.AccountRepository,
	userRepo repository.UserRepository,
	oauthClient client.SallaOAuthClient,
) AuthService {
	return &authServiceImpl{
		accountService: accountService,
		accountRepo:    accountRepo,
		userRepo:       userRepo,
		oauthClient:    oauthClient,
	}
}

func (s *authServiceImpl) InstallationURL() string {
	return s.oauthClient.InstallationURL()
}

// HandleCallback exchanges the OAuth code and connects the merchant.
func (s *authServiceImpl) HandleCallback(ctx context.Context, code string) (*model.Account, error) {
	if code == "" {
		return nil, apperr.OAuthFailed(errors.New("missing authorization code"))
	}

	token, err := s.oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.accountService.Provision(ctx, token)
}

// Login checks the credentials the merchant set in the app settings.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*model.Account, error) {
	invalid := apperr.Unauthenticated("Invalid email or password.")

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Password == "" {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}

	account, err := s.accountRepo.GetByUserID(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	account.User = user
	return account, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, publicToken string) (*model.SallaUser, *model.Account, error) {
	if publicToken == "" {
		return nil, nil, apperr.Unauthenticated("Authentication credentials were not provided.")
	}

	account, err := s.accountService.GetAlive(ctx, publicToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.Unauthenticated("Invalid token.")
	}
	if err != nil {
		return nil, nil, err
	}

	if account.User == nil || !account.User.IsActive {
		return nil, nil, apperr.Unauthenticated("User inactive or deleted.")
	}

	return account.User, account, nil
}

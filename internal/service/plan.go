package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/config"
	"tafaseel/internal/dto"
	"tafaseel/internal/model"
	"tafaseel/internal/repository"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const daysPerPlanMonth = 30

type PlanService interface {
	CheckLimit(ctx context.Context, user *model.SallaUser) error
	Usage(ctx context.Context, user *model.SallaUser) (*dto.PlanUsage, error)
	Current(ctx context.Context, user *model.SallaUser) (*model.SallaUserSubscription, error)
	StartSubscription(ctx context.Context, tx *gorm.DB, userID uint, sub *model.SallaSubscription, raw json.RawMessage, isTrial bool) error
	StopSubscriptions(ctx context.Context, tx *gorm.DB, userID uint) error
}

type planServiceImpl struct {
	subscriptionRepo repository.SubscriptionRepository
	promptRepo       repository.PromptRepository
	planCfg          *config.Plan
	now              func() time.Time
}

func NewPlanService(
	subscriptionRepo repository.SubscriptionRepository,
	promptRepo repository.PromptRepository,
	planCfg *config.Plan,
) PlanService {
	return &planServiceImpl{
		subscriptionRepo: subscriptionRepo,
		promptRepo:       promptRepo,
		planCfg:          planCfg,
		now:              time.Now,
	}
}

// CheckLimit allows a prompt while the user's latest active subscription is
// alive and fewer prompts than its limit were made in its period.
func (s *planServiceImpl) CheckLimit(ctx context.Context, user *model.SallaUser) error {
	sub, used, err := s.current(ctx, user.ID)
	if err != nil {
		return err
	}
	if sub == nil || !sub.IsAlive(s.now()) {
		return apperr.PlanLimit()
	}
	if used >= int64(sub.PromptsLimit) {
		return apperr.PlanLimit()
	}
	return nil
}

func (s *planServiceImpl) Usage(ctx context.Context, user *model.SallaUser) (*dto.PlanUsage, error) {
	sub, used, err := s.current(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.PlanUsage{}, nil
	}

	return &dto.PlanUsage{
		PlanName:  sub.PlanName,
		IsTrial:   sub.IsTrial,
		Used:      used,
		Limit:     sub.PromptsLimit,
		PeriodEnd: sub.PeriodEnd().UTC().Format(time.RFC3339),
	}, nil
}

// Current is the user's latest active subscription, nil when there is none.
func (s *planServiceImpl) Current(ctx context.Context, user *model.SallaUser) (*model.SallaUserSubscription, error) {
	sub, err := s.subscriptionRepo.LastActive(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return sub, nil
}

func (s *planServiceImpl) current(ctx context.Context, userID uint) (*model.SallaUserSubscription, int64, error) {
	sub, err := s.subscriptionRepo.LastActive(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get active subscription: %w", err)
	}

	used, err := s.promptRepo.CountBetween(ctx, userID, sub.CreatedAt, sub.PeriodEnd())
	if err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}
	return sub, used, nil
}

// StartSubscription deactivates the user's subscriptions and records sub as
// the active one.
func (s *planServiceImpl) StartSubscription(ctx context.Context, tx *gorm.DB, userID uint, sub *model.SallaSubscription, raw json.RawMessage, isTrial bool) error {
	if err := s.StopSubscriptions(ctx, tx, userID); err != nil {
		return err
	}

	if raw == nil {
		raw, _ = json.Marshal(sub)
	}
	isTrial = isTrial || strings.EqualFold(sub.PlanType, "trial")

	record := &model.SallaUserSubscription{
		UserID:              userID,
		SallaSubscriptionID: sub.ID,
		PlanName:            sub.PlanName,
		PlanType:            sub.PlanType,
		PlanPeriodDays:      s.periodDays(sub, isTrial),
		Price:               sub.Price,
		PromptsLimit:        s.promptsLimit(sub, isTrial),
		IsTrial:             isTrial,
		IsActive:            true,
		StartDate:           model.ParseSallaDate(sub.StartDate),
		EndDate:             model.ParseSallaDate(sub.EndDate),
		Payload:             datatypes.JSON(raw),
	}
	if err := s.subscriptionRepo.Create(ctx, tx, record); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *planServiceImpl) StopSubscriptions(ctx context.Context, tx *gorm.DB, userID uint) error {
	if err := s.subscriptionRepo.DeactivateAll(ctx, tx, userID); err != nil {
		return fmt.Errorf("deactivate subscriptions: %w", err)
	}
	return nil
}

func (s *planServiceImpl) periodDays(sub *model.SallaSubscription, isTrial bool) int {
	switch {
	case sub.PlanPeriod > 0:
		return sub.PlanPeriod * daysPerPlanMonth
	case isTrial:
		return s.planCfg.TrialDays
	default:
		return daysPerPlanMonth
	}
}

func (s *planServiceImpl) promptsLimit(sub *model.SallaSubscription, isTrial bool) int {
	if limit, ok := sub.Feature(s.planCfg.PromptsFeatureKey); ok {
		return limit
	}
	if isTrial {
		return s.planCfg.TrialPromptsLimit
	}
	return s.planCfg.DefaultPromptsLimit
}

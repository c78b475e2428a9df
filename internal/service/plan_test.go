package service

import (
	"context"
	"tafaseel/internal/apperr"
	"tafaseel/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addPrompt(t *testing.T, h *harness, userID uint) {
	t.Helper()
	require.NoError(t, h.promptRepo.Create(context.Background(), nil,
		&model.ChatGPTResponse{Prompt: "q", Answer: "a"},
		&model.UserPrompt{UserID: userID, ProductID: "p", PromptType: model.PromptTypeTitle},
	))
}

func TestPlanService_CheckLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.merchant(t, "7001")

	assert.True(t, apperr.Is(h.plan.CheckLimit(ctx, user), apperr.CodePlanLimit))

	require.NoError(t, h.plan.StartSubscription(ctx, nil, user.ID, &model.SallaSubscription{PlanName: "Trial"}, nil, true))
	require.NoError(t, h.plan.CheckLimit(ctx, user))

	addPrompt(t, h, user.ID)
	require.NoError(t, h.plan.CheckLimit(ctx, user))

	addPrompt(t, h, user.ID)
	err := h.plan.CheckLimit(ctx, user)
	require.Error(t, err)
	assert.Equal(t, "You have reached your plan limits", err.Error())

	usage, err := h.plan.Usage(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Trial", usage.PlanName)
	assert.True(t, usage.IsTrial)
	assert.EqualValues(t, 2, usage.Used)
	assert.Equal(t, 2, usage.Limit)
}

func TestPlanService_CheckLimitEndedSubscription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.merchant(t, "7002")

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, h.plan.StartSubscription(ctx, nil, user.ID, &model.SallaSubscription{PlanName: "Pro", EndDate: yesterday}, nil, false))

	assert.True(t, apperr.Is(h.plan.CheckLimit(ctx, user), apperr.CodePlanLimit))
}

func TestPlanService_StopSubscriptions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.merchant(t, "7003")

	require.NoError(t, h.plan.StartSubscription(ctx, nil, user.ID, &model.SallaSubscription{PlanName: "Pro"}, nil, false))
	require.NoError(t, h.plan.StopSubscriptions(ctx, nil, user.ID))

	assert.True(t, apperr.Is(h.plan.CheckLimit(ctx, user), apperr.CodePlanLimit))
	usage, err := h.plan.Usage(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, usage.Limit)
}

func TestPlanService_StartSubscriptionDefaults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.merchant(t, "7004")

	require.NoError(t, h.plan.StartSubscription(ctx, nil, user.ID, &model.SallaSubscription{PlanName: "Trial"}, nil, true))
	sub, err := h.subscriptionRepo.LastActive(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, sub.PlanPeriodDays)
	assert.Equal(t, 2, sub.PromptsLimit)
	assert.True(t, sub.IsTrial)

	require.NoError(t, h.plan.StartSubscription(ctx, nil, user.ID, &model.SallaSubscription{PlanName: "Quarterly", PlanPeriod: 3, StartDate: "2024-01-01 10:00:00"}, nil, false))
	sub, err = h.subscriptionRepo.LastActive(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", sub.PlanName)
	assert.Equal(t, 90, sub.PlanPeriodDays)
	assert.Equal(t, 100, sub.PromptsLimit)
	assert.False(t, sub.IsTrial)
	require.NotNil(t, sub.StartDate)
	assert.Equal(t, 2024, sub.StartDate.Year())

	var count int64
	require.NoError(t, h.db.Model(&model.SallaUserSubscription{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

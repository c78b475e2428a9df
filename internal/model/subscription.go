package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SallaUserSubscription struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	UserID              uint    `gorm:"not null;index" json:"user_id"`
	SallaSubscriptionID SallaID `gorm:"size:64;index" json:"salla_subscription_id"`

	PlanName       string          `gorm:"size:128" json:"plan_name"`
	PlanType       string          `gorm:"size:32" json:"plan_type"`
	PlanPeriodDays int             `gorm:"not null" json:"plan_period_days"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	PromptsLimit   int             `gorm:"not null" json:"prompts_limit"`

	IsTrial   bool       `gorm:"not null;default:false" json:"is_trial"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"is_active"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Payload datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// PeriodEnd is the end of the window prompts are counted in.
func (s *SallaUserSubscription) PeriodEnd() time.Time {
	return s.CreatedAt.AddDate(0, 0, s.PlanPeriodDays)
}

func (s *SallaUserSubscription) IsAlive(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.EndDate != nil && !now.Before(*s.EndDate) {
		return false
	}
	return now.Before(s.PeriodEnd())
}

package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SallaUserInfo is the payload of /oauth2/user/info.
type SallaUserInfo struct {
	ID       SallaID        `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Mobile   string         `json:"mobile"`
	Role     string         `json:"role"`
	Merchant map[string]any `json:"merchant"`
}

// SallaStoreInfo is the payload of /store/info.
type SallaStoreInfo struct {
	ID          SallaID         `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Avatar      string          `json:"avatar"`
	Plan        string          `json:"plan"`
	Status      string          `json:"status"`
	Verified    bool            `json:"verified"`
	Currency    string          `json:"currency"`
	Domain      string          `json:"domain"`
	Description string          `json:"description"`
	Licenses    json.RawMessage `json:"licenses"`
	Social      json.RawMessage `json:"social"`
}

type SallaPlanFeature struct {
	Key      string `json:"key"`
	Quantity *int   `json:"quantity"`
}

// SallaSubscription is an app subscription as Salla reports it, both in
// subscription webhooks and in /apps/{id}/subscriptions.
type SallaSubscription struct {
	ID         SallaID            `json:"id"`
	PlanName   string             `json:"plan_name"`
	PlanType   string             `json:"plan_type"`
	PlanPeriod int                `json:"plan_period"` // months
	Price      decimal.Decimal    `json:"price"`
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Features   []SallaPlanFeature `json:"features"`
}

// Feature returns the quantity of the plan feature with the given key.
func (s *SallaSubscription) Feature(key string) (int, bool) {
	for _, f := range s.Features {
		if f.Key == key && f.Quantity != nil {
			return *f.Quantity, true
		}
	}
	return 0, false
}

var sallaDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseSallaDate parses the date formats Salla uses. Empty input gives nil.
func ParseSallaDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range sallaDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// WebhookPayload is the envelope of every Salla webhook call.
type WebhookPayload struct {
	Event     string          `json:"event"`
	Merchant  SallaID         `json:"merchant"`
	CreatedAt string          `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// SettingsUpdate is the data of app.settings.updated.
type SettingsUpdate struct {
	Settings struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"settings"`
}

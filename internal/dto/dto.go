package dto

import (
	"encoding/json"
	"tafaseel/internal/model"
)

var ProductStatuses = []string{"hidden", "sale", "out"}

// ProductListParams are the filters accepted by Salla's product listing.
type ProductListParams struct {
	Category string `query:"category" json:"category,omitempty" validate:"omitempty,max=100"`
	Keyword  string `query:"keyword" json:"keyword,omitempty" validate:"omitempty,max=100"`
	Page     int    `query:"page" json:"page" validate:"omitempty,min=1"`
	PerPage  int    `query:"per_page" json:"per_page" validate:"omitempty,min=1,max=100"`
	Status   string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=hidden sale out"`
}

func (p *ProductListParams) ApplyDefaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PerPage == 0 {
		p.PerPage = 100
	}
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type GeneratePromptRequest struct {
	ProductID    string           `json:"product_id" validate:"required,max=64"`
	ProductName  string           `json:"product_name" validate:"required"`
	PromptType   model.PromptType `json:"prompt_type" validate:"required,oneof=title description seo_title seo_description"`
	Description  string           `json:"description,omitempty"`
	KeywordsList []string         `json:"keywords_list,omitempty"`
	Extra        map[string]any   `json:"extra,omitempty"`
}

type PromptHistoryQuery struct {
	ProductID  string           `query:"product_id" validate:"required"`
	PromptType model.PromptType `query:"prompt_type" validate:"required,oneof=title description seo_title seo_description"`
}

type PromptResponse struct {
	ID         uint             `json:"id"`
	ProductID  string           `json:"product_id"`
	PromptType model.PromptType `json:"prompt_type"`
	Answer     string           `json:"answer"`
	IsAccepted *bool            `json:"is_accepted"`
	Meta       map[string]any   `json:"meta"`
}

func NewPromptResponse(p *model.UserPrompt) *PromptResponse {
	return &PromptResponse{
		ID:         p.ID,
		ProductID:  p.ProductID,
		PromptType: p.PromptType,
		Answer:     p.Answer(),
		IsAccepted: p.IsAccepted,
		Meta:       p.Meta,
	}
}

type WriteDescriptionRequest struct {
	Description string `json:"description" validate:"required"`
}

type PlanUsage struct {
	PlanName  string `json:"plan_name"`
	IsTrial   bool   `json:"is_trial"`
	Used      int64  `json:"used"`
	Limit     int    `json:"limit"`
	PeriodEnd string `json:"period_end"`
}

type Me struct {
	User         *model.SallaUser             `json:"user"`
	Subscription *model.SallaUserSubscription `json:"subscription,omitempty"`
}

type Home struct {
	User            *model.SallaUser `json:"user"`
	IsAuthenticated bool             `json:"is_authenticated"`
	NavPages        []model.NavPage  `json:"nav_pages"`
	Products        json.RawMessage  `json:"products"`
	Pagination      json.RawMessage  `json:"pagination"`
}

// SettingsValidationRequest is what Salla posts before saving app settings.
type SettingsValidationRequest struct {
	Event    string         `json:"event"`
	Merchant model.SallaID  `json:"merchant"`
	Data     map[string]any `json:"data"`
}

type SettingsSubmission struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

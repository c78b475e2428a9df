package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PromptType string

const (
	PromptTypeTitle          PromptType = "title"
	PromptTypeDescription    PromptType = "description"
	PromptTypeSEOTitle       PromptType = "seo_title"
	PromptTypeSEODescription PromptType = "seo_description"
)

func PromptTypes() []PromptType {
	return []PromptType{PromptTypeTitle, PromptTypeDescription, PromptTypeSEOTitle, PromptTypeSEODescription}
}

func (t PromptType) Valid() bool {
	for _, pt := range PromptTypes() {
		if pt == t {
			return true
		}
	}
	return false
}

// SallaKey is the product field Salla's update endpoint expects for the type.
func (t PromptType) SallaKey() string {
	switch t {
	case PromptTypeTitle:
		return "name"
	case PromptTypeDescription:
		return "description"
	case PromptTypeSEOTitle:
		return "metadata_title"
	case PromptTypeSEODescription:
		return "metadata_description"
	}
	return ""
}

// MaxPromptLength is the longest prompt, in characters, sent to the model.
const MaxPromptLength = 512

// ChatGPTResponse logs one language-model call.
type ChatGPTResponse struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Prompt       string         `gorm:"size:512;not null" json:"prompt"`
	TotalTokens  int            `gorm:"not null;default:0" json:"total_tokens"`
	Answer       string         `gorm:"type:text" json:"answer"`
	FullResponse datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ChatGPTResponse) BeforeSave(tx *gorm.DB) error {
	if n := utf8.RuneCountInString(r.Prompt); n > MaxPromptLength {
		return fmt.Errorf("prompt is %d characters, the limit is %d", n, MaxPromptLength)
	}
	return nil
}

func (r *ChatGPTResponse) String() string {
	return r.Prompt
}

type UserPrompt struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	UserID            uint             `gorm:"not null;index" json:"user_id"`
	User              *SallaUser       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ChatGPTResponseID uint             `gorm:"uniqueIndex;not null" json:"-"`
	ChatGPTResponse   *ChatGPTResponse `gorm:"constraint:OnDelete:CASCADE" json:"chat_gpt_log"`

	// request payload describing the product the prompt was built from
	Meta datatypes.JSONMap `json:"meta"`

	ProductID  string     `gorm:"size:64;index;not null" json:"product_id"`
	PromptType PromptType `gorm:"size:32;not null" json:"prompt_type"`
	IsAccepted *bool      `json:"is_accepted"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *UserPrompt) AcceptanceEmoji() string {
	if p.IsAccepted == nil {
		return "🤷‍♂️"
	}
	if *p.IsAccepted {
		return "✅"
	}
	return "❌"
}

func (p *UserPrompt) Answer() string {
	if p.ChatGPTResponse == nil {
		return ""
	}
	return p.ChatGPTResponse.Answer
}

func (p *UserPrompt) String() string {
	prompt := ""
	if p.ChatGPTResponse != nil {
		prompt = p.ChatGPTResponse.Prompt
	}
	return fmt.Sprintf("%d: %s (%s)", p.UserID, prompt, p.AcceptanceEmoji())
}

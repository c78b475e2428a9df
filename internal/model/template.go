package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PromptTemplate is a parametrized prompt stored per (type, language).
type PromptTemplate struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Name     string     `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Type     PromptType `gorm:"size:32;not null" json:"type"`
	Language string     `gorm:"size:8;not null" json:"language"`
	Template string     `gorm:"type:text;not null" json:"template"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func TemplateName(t PromptType, language string) string {
	return strings.ToUpper(fmt.Sprintf("%s_%s", t, language))
}

func (t *PromptTemplate) BeforeSave(tx *gorm.DB) error {
	t.Language = strings.ToUpper(t.Language)
	if t.Name == "" {
		t.Name = TemplateName(t.Type, t.Language)
	}
	return nil
}

package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type SallaWebhookLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	RequestID  string            `gorm:"size:64;index" json:"request_id"`
	Event      string            `gorm:"size:128;index;not null" json:"event"`
	MerchantID string            `gorm:"size:64;index" json:"merchant_id"`
	Data       datatypes.JSON    `json:"data"`
	Response   datatypes.JSONMap `json:"response"`
	StatusCode int               `gorm:"not null" json:"status_code"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *SallaWebhookLog) Succeeded() bool {
	return stringify(l.Response["status"]) == "success"
}

func (l *SallaWebhookLog) String() string {
	emoji := "❌"
	if l.Succeeded() {
		emoji = "✅"
	}
	return fmt.Sprintf("%s %s - %s", emoji, l.Event, l.MerchantID)
}

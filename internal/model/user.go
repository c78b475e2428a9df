package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SallaUser struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	SallaID SallaID `gorm:"size:64;uniqueIndex;not null" json:"salla_id"`

	Name     string `gorm:"size:128" json:"name"`
	Email    string `gorm:"size:256;index" json:"email"`
	Mobile   string `gorm:"size:32" json:"mobile"`
	Role     string `gorm:"size:16;default:user" json:"role"`
	Password string `gorm:"size:128" json:"-"`

	IsActive   bool              `gorm:"not null;default:true" json:"is_active"`
	IsMerchant bool              `gorm:"not null;default:false" json:"is_merchant"`
	Merchant   datatypes.JSONMap `json:"merchant"`

	Store   *SallaStore `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
	Account *Account    `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *SallaUser) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = "user"
	}
	u.IsMerchant = u.SallaID != "" && u.SallaID.String() == stringify(u.Merchant["id"])
	return nil
}

func (u *SallaUser) String() string {
	return u.SallaID.String()
}

type SallaStore struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	UserID  uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	SallaID SallaID `gorm:"size:64;uniqueIndex;not null" json:"salla_id"`

	Name        string            `gorm:"size:128" json:"name"`
	Email       string            `gorm:"size:256" json:"email"`
	Avatar      string            `gorm:"size:512" json:"avatar"`
	Plan        string            `gorm:"size:32" json:"plan"`
	Status      string            `gorm:"size:32" json:"status"`
	Verified    bool              `gorm:"not null;default:true" json:"verified"`
	Currency    string            `gorm:"size:16" json:"currency"`
	Domain      string            `gorm:"size:512" json:"domain"`
	Description string            `gorm:"type:text" json:"description"`
	Licenses    datatypes.JSON    `json:"licenses"`
	Social      datatypes.JSON    `json:"social"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

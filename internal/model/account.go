package model

import (
	"time"

	"gorm.io/gorm"
)

// Account holds a merchant's Salla OAuth tokens and the public token the
// browser authenticates with.
type Account struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PublicToken string     `gorm:"size:256;uniqueIndex;not null" json:"-"`
	UserID      *uint      `gorm:"uniqueIndex" json:"user_id"`
	User        *SallaUser `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	AccessToken  string `gorm:"size:256" json:"-"`
	RefreshToken string `gorm:"size:256" json:"-"`
	ExpiresIn    int64  `gorm:"not null;index" json:"expires_in"` // unix seconds
	Scope        string `gorm:"size:1024" json:"scope"`
	TokenType    string `gorm:"size:16" json:"token_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) BeforeSave(tx *gorm.DB) error {
	if a.PublicToken == "" {
		a.PublicToken = GenerateToken(publicTokenLength)
	}
	if a.ExpiresIn == 0 {
		a.ExpiresIn = NextTwoWeeks(time.Now())
	}
	a.TokenType = titleCase(a.TokenType)
	return nil
}

func (a *Account) IsAlive(now time.Time) bool {
	return a.ExpiresIn > now.Unix()
}

// HasTokens is false once Salla rejected the tokens and they were cleared.
func (a *Account) HasTokens() bool {
	return a.AccessToken != "" && a.RefreshToken != ""
}

// OAuthToken is the token endpoint response, also carried by the
// app.store.authorize webhook.
type OAuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Expires      int64  `json:"expires"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// Apply copies the token onto the account. expires_in is ignored.
func (t *OAuthToken) Apply(a *Account, now time.Time) {
	a.AccessToken = t.AccessToken
	a.RefreshToken = t.RefreshToken
	a.Scope = t.Scope
	a.TokenType = titleCase(t.TokenType)
	a.ExpiresIn = NextTwoWeeks(now)
}

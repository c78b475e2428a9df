package model

import (
	"bytes"
	"errors"
	"html/template"
	"time"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"gorm.io/gorm"
)

var ErrPageBodyRequired = errors.New("either html or md must be set")

type StaticPage struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:200;not null" json:"title"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`

	MD   *string `gorm:"type:text" json:"md,omitempty"`
	HTML *string `gorm:"type:text" json:"html,omitempty"`

	Head      string `gorm:"type:text" json:"head,omitempty"`
	CustomCSS string `gorm:"type:text" json:"custom_css,omitempty"`
	CustomJS  string `gorm:"type:text" json:"custom_js,omitempty"`

	IsNav       bool   `gorm:"not null;default:false;index" json:"is_nav"`
	NavName     string `gorm:"size:200" json:"nav_name"`
	NavOrdering int    `gorm:"not null;default:0" json:"nav_ordering"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *StaticPage) BeforeSave(tx *gorm.DB) error {
	if p.NavName == "" {
		p.NavName = p.Title
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	if p.HTML == nil && p.MD == nil {
		return ErrPageBodyRequired
	}
	return nil
}

func (p *StaticPage) BeforeCreate(tx *gorm.DB) error {
	if p.NavOrdering != 0 {
		return nil
	}
	var navCount int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&StaticPage{}).
		Where("is_nav = ?", true).
		Count(&navCount).Error
	if err != nil {
		return err
	}
	p.NavOrdering = int(navCount+1) * 10
	return nil
}

// Body is the page HTML, rendered from markdown when no HTML was given.
func (p *StaticPage) Body() (template.HTML, error) {
	if p.HTML != nil && *p.HTML != "" {
		return template.HTML(*p.HTML), nil
	}
	if p.MD == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(*p.MD), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (p *StaticPage) URL() string {
	return "/pages/" + p.Slug + "/"
}

type NavPage struct {
	NavName string `json:"nav_name"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
}

func (p *StaticPage) NavPage() NavPage {
	return NavPage{NavName: p.NavName, Slug: p.Slug, URL: p.URL()}
}

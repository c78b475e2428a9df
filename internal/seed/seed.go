package seed

import (
	"context"
	"fmt"
	"io"
	"tafaseel/internal/model"

	"gopkg.in/yaml.v3"
)

// File is a content fixture of prompt templates and static pages.
type File struct {
	Templates []Template `yaml:"templates"`
	Pages     []Page     `yaml:"pages"`
}

type Template struct {
	Name     string           `yaml:"name"`
	Type     model.PromptType `yaml:"type"`
	Language string           `yaml:"language"`
	Template string           `yaml:"template"`
}

type Page struct {
	Title       string  `yaml:"title"`
	Slug        string  `yaml:"slug"`
	MD          *string `yaml:"md"`
	HTML        *string `yaml:"html"`
	Head        string  `yaml:"head"`
	CustomCSS   string  `yaml:"custom_css"`
	CustomJS    string  `yaml:"custom_js"`
	IsNav       bool    `yaml:"is_nav"`
	NavName     string  `yaml:"nav_name"`
	NavOrdering int     `yaml:"nav_ordering"`
}

type TemplateStore interface {
	Upsert(ctx context.Context, tmpl *model.PromptTemplate) error
}

type PageStore interface {
	Upsert(ctx context.Context, page *model.StaticPage) error
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for i, t := range f.Templates {
		if !t.Type.Valid() {
			return nil, fmt.Errorf("template %d: invalid type %q", i, t.Type)
		}
		if t.Language == "" || t.Template == "" {
			return nil, fmt.Errorf("template %d: language and template are required", i)
		}
	}
	for i, p := range f.Pages {
		if p.Title == "" {
			return nil, fmt.Errorf("page %d: title is required", i)
		}
	}
	return &f, nil
}

// Apply upserts the file's templates and pages.
func Apply(ctx context.Context, f *File, templates TemplateStore, pages PageStore) error {
	for _, t := range f.Templates {
		tmpl := &model.PromptTemplate{
			Name:     t.Name,
			Type:     t.Type,
			Language: t.Language,
			Template: t.Template,
		}
		if err := templates.Upsert(ctx, tmpl); err != nil {
			return fmt.Errorf("upsert template %s: %w", tmpl.Name, err)
		}
	}

	for _, p := range f.Pages {
		page := &model.StaticPage{
			Title:       p.Title,
			Slug:        p.Slug,
			MD:          p.MD,
			HTML:        p.HTML,
			Head:        p.Head,
			CustomCSS:   p.CustomCSS,
			CustomJS:    p.CustomJS,
			IsNav:       p.IsNav,
			NavName:     p.NavName,
			NavOrdering: p.NavOrdering,
		}
		if err := pages.Upsert(ctx, page); err != nil {
			return fmt.Errorf("upsert page %s: %w", p.Title, err)
		}
	}
	return nil
}

// Package prompt turns product data into a language-model prompt using the
// stored per-language templates.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/model"
	"unicode"
	"unicode/utf8"

	"github.com/valyala/fasttemplate"
	"gorm.io/gorm"
)

const (
	LanguageArabic  = "AR"
	LanguageEnglish = "EN"
)

type TemplateFinder interface {
	FindByName(ctx context.Context, name string) (*model.PromptTemplate, error)
}

// Input is the product data a prompt is built from. Data holds the
// placeholder values; product_name and prompt_type are always present.
type Input struct {
	ProductName string
	PromptType  model.PromptType
	Data        map[string]string
}

type Prompt struct {
	Text         string
	Language     string
	TemplateName string
	MaxTokens    int
}

type Generator struct {
	templates        TemplateFinder
	defaultMaxTokens int
}

func NewGenerator(templates TemplateFinder, defaultMaxTokens int) *Generator {
	return &Generator{templates: templates, defaultMaxTokens: defaultMaxTokens}
}

// Language is AR when the text contains any Arabic letter.
func Language(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r) {
			return LanguageArabic
		}
	}
	return LanguageEnglish
}

// MaxTokens is the completion budget for the prompt type.
func (g *Generator) MaxTokens(t model.PromptType) int {
	switch t {
	case model.PromptTypeSEOTitle:
		return 70
	case model.PromptTypeSEODescription:
		return 140
	}
	return g.defaultMaxTokens
}

func (g *Generator) Build(ctx context.Context, in Input) (*Prompt, error) {
	if !in.PromptType.Valid() {
		types := make([]string, 0, len(model.PromptTypes()))
		for _, t := range model.PromptTypes() {
			types = append(types, string(t))
		}
		return nil, apperr.Validation(fmt.Sprintf("unknown prompt type %q", in.PromptType),
			map[string]string{"prompt_type": "must be one of " + strings.Join(types, ", ")})
	}

	language := Language(in.ProductName)
	name := model.TemplateName(in.PromptType, language)

	tmpl, err := g.templates.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Template with name `%s` not found.", name))
		}
		return nil, fmt.Errorf("find template %s: %w", name, err)
	}

	data := make(map[string]string, len(in.Data)+2)
	for k, v := range in.Data {
		data[k] = v
	}
	data["product_name"] = in.ProductName
	data["prompt_type"] = string(in.PromptType)

	text, err := Render(tmpl.Template, data)
	if err != nil {
		return nil, apperr.Validation(err.Error(), nil)
	}
	if n := utf8.RuneCountInString(text); n > model.MaxPromptLength {
		return nil, apperr.Validation(fmt.Sprintf("Prompt is %d characters long, the limit is %d.", n, model.MaxPromptLength),
			map[string]string{"keywords": "too long"})
	}

	return &Prompt{
		Text:         text,
		Language:     language,
		TemplateName: name,
		MaxTokens:    g.MaxTokens(in.PromptType),
	}, nil
}

const (
	openBrace  = "\x00"
	closeBrace = "\x01"
)

// escapeBraces turns {{ and }} into tags of their own so the template
// engine sees only real placeholders.
var escapeBraces = strings.NewReplacer("{{", "{"+openBrace+"}", "}}", "{"+closeBrace+"}")

// Render substitutes {name} placeholders. {{ and }} produce literal braces.
// Keys are matched exactly, so "{ name }" does not resolve "name".
func Render(tmpl string, data map[string]string) (string, error) {
	escaped := escapeBraces.Replace(tmpl)
	if strings.Count(escaped, "{") != strings.Count(escaped, "}") {
		return "", errors.New("unbalanced braces in template")
	}

	t, err := fasttemplate.NewTemplate(escaped, "{", "}")
	if err != nil {
		return "", fmt.Errorf("unclosed placeholder: %w", err)
	}

	return t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		switch tag {
		case openBrace:
			return io.WriteString(w, "{")
		case closeBrace:
			return io.WriteString(w, "}")
		}
		value, ok := data[tag]
		if !ok {
			return 0, fmt.Errorf("missing value for placeholder {%s}", tag)
		}
		return io.WriteString(w, value)
	})
}

package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"tafaseel/internal/apperr"
	"tafaseel/internal/middleware"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var pageTemplates = template.Must(template.New("base").Parse(`{{define "nav"}}<nav>{{range .NavPages}}<a href="{{.URL}}">{{.NavName}}</a> {{end}}</nav>{{end}}
{{define "index"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Tafaseel</title></head>
<body>{{template "nav" .}}
<h1>Tafaseel</h1>
<p><a href="{{.InstallationURL}}">Install on Salla</a></p>
</body></html>{{end}}
{{define "dashboard"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Dashboard</title></head>
<body>{{template "nav" .}}
<h1>{{.User.Name}}</h1>
{{with .Usage}}<p>{{.PlanName}}: {{.Used}} / {{.Limit}} prompts{{if .PeriodEnd}} until {{.PeriodEnd}}{{end}}</p>{{end}}
<form method="post" action="/auth/logout"><button type="submit">Log out</button></form>
</body></html>{{end}}
{{define "page"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Page.Title}}</title>{{.Head}}<style>{{.CSS}}</style></head>
<body>{{template "nav" .}}
<main>{{.Body}}</main>
<script>{{.JS}}</script>
</body></html>{{end}}`))

type PageHandler struct {
	pageService service.PageService
	authService service.AuthService
	planService service.PlanService
}

func NewPageHandler(pageService service.PageService, authService service.AuthService, planService service.PlanService) *PageHandler {
	return &PageHandler{
		pageService: pageService,
		authService: authService,
		planService: planService,
	}
}

func (h *PageHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	navPages, err := h.pageService.NavPages(ctx)
	if err != nil {
		return err
	}

	return render(c, "index", map[string]any{
		"NavPages":        navPages,
		"InstallationURL": h.authService.InstallationURL(),
	})
}

// Dashboard is the logged in merchant's landing page.
func (h *PageHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	usage, err := h.planService.Usage(ctx, user)
	if err != nil {
		return err
	}
	navPages, err := h.pageService.NavPages(ctx)
	if err != nil {
		return err
	}

	return render(c, "dashboard", map[string]any{
		"User":     user,
		"Usage":    usage,
		"NavPages": navPages,
	})
}

func (h *PageHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.pageService.Get(ctx, c.Param("slug"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Page not found.")
	}
	if err != nil {
		return err
	}

	body, err := page.Body()
	if err != nil {
		return err
	}
	navPages, err := h.pageService.NavPages(ctx)
	if err != nil {
		return err
	}

	return render(c, "page", map[string]any{
		"Page":     page,
		"NavPages": navPages,
		"Body":     body,
		"Head":     template.HTML(page.Head),
		"CSS":      template.CSS(page.CustomCSS),
		"JS":       template.JS(page.CustomJS),
	})
}

func render(c echo.Context, name string, data map[string]any) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}


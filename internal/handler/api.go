package handler

import (
	"net/http"
	"strconv"
	"tafaseel/internal/apperr"
	"tafaseel/internal/dto"
	"tafaseel/internal/middleware"
	"tafaseel/internal/model"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
	planService    service.PlanService
}

func NewProductHandler(productService service.ProductService, planService service.PlanService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		planService:    planService,
	}
}

func (h *ProductHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	sub, err := h.planService.Current(ctx, user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Me{User: user, Subscription: sub})
}

func (h *ProductHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := bindProductParams(c)
	if err != nil {
		return err
	}

	home, err := h.productService.Home(ctx, middleware.CurrentAccount(c), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, home)
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := bindProductParams(c)
	if err != nil {
		return err
	}

	products, err := h.productService.List(ctx, middleware.CurrentAccount(c), params)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.Get(ctx, middleware.CurrentAccount(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, product)
}

// WriteDescription saves a description the merchant edited by hand.
func (h *ProductHandler) WriteDescription(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.WriteDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product, err := h.productService.UpdateField(ctx, middleware.CurrentAccount(c), c.Param("id"), model.PromptTypeDescription.SallaKey(), req.Description)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, product)
}

func (h *ProductHandler) PlanUsage(c echo.Context) error {
	ctx := c.Request().Context()

	usage, err := h.planService.Usage(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}

func (h *ProductHandler) SallaSettings(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.productService.Settings(ctx, middleware.CurrentAccount(c))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, settings)
}

func bindProductParams(c echo.Context) (*dto.ProductListParams, error) {
	params := &dto.ProductListParams{}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, params); err != nil {
		return nil, err
	}
	if err := c.Validate(params); err != nil {
		return nil, err
	}
	params.ApplyDefaults()
	return params, nil
}

type PromptHandler struct {
	promptService service.PromptService
}

func NewPromptHandler(promptService service.PromptService) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
	}
}

func (h *PromptHandler) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GeneratePromptRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userPrompt, err := h.promptService.Generate(ctx, middleware.CurrentUser(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewPromptResponse(userPrompt))
}

func (h *PromptHandler) History(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.PromptHistoryQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return err
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	prompts, err := h.promptService.History(ctx, middleware.CurrentUser(c), query.ProductID, query.PromptType)
	if err != nil {
		return err
	}

	resp := make([]*dto.PromptResponse, len(prompts))
	for i, p := range prompts {
		resp[i] = dto.NewPromptResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PromptHandler) Accept(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := promptID(c)
	if err != nil {
		return err
	}

	userPrompt, err := h.promptService.Accept(ctx, middleware.CurrentUser(c), middleware.CurrentAccount(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewPromptResponse(userPrompt))
}

func (h *PromptHandler) Decline(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := promptID(c)
	if err != nil {
		return err
	}

	userPrompt, err := h.promptService.Decline(ctx, middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewPromptResponse(userPrompt))
}

func promptID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Prompt not found.")
	}
	return uint(id), nil
}

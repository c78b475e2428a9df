package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"tafaseel/internal/apperr"
	"tafaseel/internal/client"
	"tafaseel/internal/dto"
	"tafaseel/internal/model"
	"tafaseel/internal/prompt"
	"tafaseel/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PromptService interface {
	Generate(ctx context.Context, user *model.SallaUser, req *dto.GeneratePromptRequest) (*model.UserPrompt, error)
	History(ctx context.Context, user *model.SallaUser, productID string, promptType model.PromptType) ([]*model.UserPrompt, error)
	Accept(ctx context.Context, user *model.SallaUser, account *model.Account, promptID uint) (*model.UserPrompt, error)
	Decline(ctx context.Context, user *model.SallaUser, promptID uint) (*model.UserPrompt, error)
}

type promptServiceImpl struct {
	promptRepo     repository.PromptRepository
	generator      *prompt.Generator
	languageModel  client.LanguageModel
	productService ProductService
	log            *slog.Logger
}

func NewPromptService(
	promptRepo repository.PromptRepository,
	generator *prompt.Generator,
	languageModel client.LanguageModel,
	productService ProductService,
	log *slog.Logger,
) PromptService {
	return &promptServiceImpl{
		promptRepo:     promptRepo,
		generator:      generator,
		languageModel:  languageModel,
		productService: productService,
		log:            log,
	}
}

// Generate renders the prompt for the product, asks the language model and
// stores both the call and the user's prompt.
func (s *promptServiceImpl) Generate(ctx context.Context, user *model.SallaUser, req *dto.GeneratePromptRequest) (*model.UserPrompt, error) {
	data := map[string]string{}
	for key, value := range req.Extra {
		data[key] = fmt.Sprint(value)
	}
	data["product_id"] = req.ProductID
	data["description"] = req.Description
	data["keywords_str"] = strings.Join(req.KeywordsList, ", ")

	built, err := s.generator.Build(ctx, prompt.Input{
		ProductName: req.ProductName,
		PromptType:  req.PromptType,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}

	completion, err := s.languageModel.Complete(ctx, client.CompletionRequest{
		Prompt:    built.Text,
		MaxTokens: built.MaxTokens,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "language model failed", "template", built.TemplateName, "error", err)
		return nil, apperr.ModelFailure(err)
	}

	meta := datatypes.JSONMap{
		"product_name":  req.ProductName,
		"keywords_list": req.KeywordsList,
		"keywords_str":  data["keywords_str"],
		"language":      built.Language,
		"template":      built.TemplateName,
	}
	if req.Description != "" {
		meta["description"] = req.Description
	}

	response := &model.ChatGPTResponse{
		Prompt:       built.Text,
		TotalTokens:  completion.TotalTokens,
		Answer:       completion.Text,
		FullResponse: datatypes.JSON(completion.Raw),
	}
	userPrompt := &model.UserPrompt{
		UserID:     user.ID,
		Meta:       meta,
		ProductID:  req.ProductID,
		PromptType: req.PromptType,
	}
	if err := s.promptRepo.Create(ctx, nil, response, userPrompt); err != nil {
		return nil, fmt.Errorf("store prompt: %w", err)
	}

	return userPrompt, nil
}

func (s *promptServiceImpl) History(ctx context.Context, user *model.SallaUser, productID string, promptType model.PromptType) ([]*model.UserPrompt, error) {
	return s.promptRepo.History(ctx, user.ID, productID, promptType)
}

// Accept writes the answer to the product field on Salla, then marks the
// prompt accepted.
func (s *promptServiceImpl) Accept(ctx context.Context, user *model.SallaUser, account *model.Account, promptID uint) (*model.UserPrompt, error) {
	userPrompt, err := s.get(ctx, user, promptID)
	if err != nil {
		return nil, err
	}

	_, err = s.productService.UpdateField(ctx, account, userPrompt.ProductID, userPrompt.PromptType.SallaKey(), userPrompt.Answer())
	if err != nil {
		return nil, err
	}

	if err := s.promptRepo.SetAccepted(ctx, nil, userPrompt.ID, true); err != nil {
		return nil, fmt.Errorf("accept prompt: %w", err)
	}
	accepted := true
	userPrompt.IsAccepted = &accepted
	return userPrompt, nil
}

func (s *promptServiceImpl) Decline(ctx context.Context, user *model.SallaUser, promptID uint) (*model.UserPrompt, error) {
	userPrompt, err := s.get(ctx, user, promptID)
	if err != nil {
		return nil, err
	}

	if err := s.promptRepo.SetAccepted(ctx, nil, userPrompt.ID, false); err != nil {
		return nil, fmt.Errorf("decline prompt: %w", err)
	}
	declined := false
	userPrompt.IsAccepted = &declined
	return userPrompt, nil
}

func (s *promptServiceImpl) get(ctx context.Context, user *model.SallaUser, promptID uint) (*model.UserPrompt, error) {
	userPrompt, err := s.promptRepo.GetForUser(ctx, user.ID, promptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Prompt not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return userPrompt, nil
}

package service

import (
	"fmt"
	"tafaseel/internal/apperr"
	"tafaseel/internal/dto"

	"github.com/go-playground/validator/v10"
)

type SettingsService interface {
	Validate(settings map[string]any) map[string]string
}

type settingsServiceImpl struct {
	validate *validator.Validate
}

func NewSettingsService(validate *validator.Validate) SettingsService {
	return &settingsServiceImpl{validate: validate}
}

// Validate checks the settings form a merchant submits in Salla. The
// returned map holds one message per invalid field and is empty when the
// settings are acceptable.
func (s *settingsServiceImpl) Validate(settings map[string]any) map[string]string {
	fields := map[string]string{}

	submission := dto.SettingsSubmission{}
	for key, target := range map[string]*string{"email": &submission.Email, "password": &submission.Password} {
		raw, ok := settings[key]
		if !ok || raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			fields[key] = fmt.Sprintf("%s must be a string", key)
			continue
		}
		*target = value
	}
	if len(fields) > 0 {
		return fields
	}

	if err := s.validate.Struct(submission); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = apperr.FormatFieldError(fe)
			}
		}
	}
	return fields
}

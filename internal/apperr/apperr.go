package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeOAuthFailed     Code = "oauth_failed"
	CodeEndpointFailure Code = "endpoint_failure"
	CodeWebhookFailure  Code = "webhook_failure"
	CodePlanLimit       Code = "plan_limit"
	CodeNotFound        Code = "not_found"
	CodeValidation      Code = "validation"
	CodeUnauthenticated Code = "unauthenticated"
	CodeRateLimited     Code = "rate_limited"
	CodeModelFailure    Code = "model_failure"
)

// Error is an application failure that knows which HTTP status it maps to.
type Error struct {
	Code    Code
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func OAuthFailed(err error) *Error {
	return &Error{Code: CodeOAuthFailed, Status: http.StatusUnauthorized, Message: "Salla Oauth Failed.", Err: err}
}

func EndpointFailure(err error) *Error {
	return &Error{Code: CodeEndpointFailure, Status: http.StatusFailedDependency, Message: "Salla Endpoint Failed.", Err: err}
}

func WebhookFailure(message string) *Error {
	return &Error{Code: CodeWebhookFailure, Status: http.StatusBadRequest, Message: message}
}

func PlanLimit() *Error {
	return &Error{Code: CodePlanLimit, Status: http.StatusForbidden, Message: "You have reached your plan limits"}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message, Fields: fields}
}

func Unauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, Message: message}
}

func RateLimited() *Error {
	return &Error{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: "Rate limit exceeded"}
}

func ModelFailure(err error) *Error {
	return &Error{Code: CodeModelFailure, Status: http.StatusBadGateway, Message: "Language model request failed.", Err: err}
}

// Is reports whether err carries an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

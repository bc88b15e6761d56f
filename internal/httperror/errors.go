package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/monitor"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/provider"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/router"
)

// ErrorCode 는 API 오류 코드다.
type ErrorCode string

const (
	// ErrorCodeInternal 는 내부 오류 코드다.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeValidation 는 검증 오류 코드다.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeUnauthorized 는 인증 오류 코드다.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeHTTPRateLimit 는 요청 제한 오류 코드다.
	ErrorCodeHTTPRateLimit ErrorCode = "HTTP_RATE_LIMIT"
	// ErrorCodeNoProvider 는 적격 프로바이더가 없는 경우의 코드다.
	ErrorCodeNoProvider ErrorCode = "NO_PROVIDER_AVAILABLE"
	// ErrorCodeAllProvidersFailed 는 모든 후보 호출이 실패한 경우의 코드다.
	ErrorCodeAllProvidersFailed ErrorCode = "ALL_PROVIDERS_FAILED"
	// ErrorCodeProviderTimeout 는 프로바이더 호출 타임아웃 코드다.
	ErrorCodeProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"
	// ErrorCodeRequestCanceled 는 호출자 취소 코드다.
	ErrorCodeRequestCanceled ErrorCode = "REQUEST_CANCELED"
	// ErrorCodeUserBlocked 는 차단된 사용자 코드다.
	ErrorCodeUserBlocked ErrorCode = "USER_BLOCKED"
	// ErrorCodeUnknownModel 는 카탈로그에 없는 모델 코드다.
	ErrorCodeUnknownModel ErrorCode = "UNKNOWN_MODEL"
	// ErrorCodeInvalidInput 는 입력 오류 코드다.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingField 는 필드 누락 코드다.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"
)

// ErrorResponse 는 API 오류 응답 본문이다.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	RequestID *string        `json:"request_id"`
	Details   map[string]any `json:"details"`
}

// Error 는 내부 표준 오류 타입이다.
type Error struct {
	Code    ErrorCode
	Status  int
	Type    string
	Message string
	Details map[string]any
}

// Error 는 오류 메시지를 반환한다.
func (e *Error) Error() string {
	return e.Message
}

// Response 는 오류를 HTTP 응답으로 변환한다.
func Response(err error, requestID string) (int, ErrorResponse) {
	apiErr := FromError(err)
	if apiErr == nil {
		apiErr = NewInternalError("unknown error")
	}

	var requestIDPtr *string
	if requestID != "" {
		requestIDPtr = &requestID
	}

	return apiErr.Status, ErrorResponse{
		ErrorCode: string(apiErr.Code),
		ErrorType: apiErr.Type,
		Message:   apiErr.Message,
		RequestID: requestIDPtr,
		Details:   apiErr.Details,
	}
}

// FromError 는 오류를 내부 오류 타입으로 변환한다.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var failed *router.AllProvidersFailedError
	if errors.As(err, &failed) {
		return NewAllProvidersFailed(failed.Attempts)
	}

	if errors.Is(err, router.ErrNoProviderAvailable) {
		return NewNoProviderAvailable()
	}

	if errors.Is(err, monitor.ErrUserIDRequired) {
		return NewMissingField("user_id")
	}

	if errors.Is(err, provider.ErrMissingAPIKey) {
		return NewNoProviderAvailable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderTimeout("Provider request timed out")
	}

	if errors.Is(err, context.Canceled) {
		return &Error{
			Code:    ErrorCodeRequestCanceled,
			Status:  http.StatusRequestTimeout,
			Type:    "RequestCanceledError",
			Message: "Request canceled",
			Details: nil,
		}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(err)
	}

	return NewInternalError(err.Error())
}

// NewInternalError 는 내부 오류를 생성한다.
func NewInternalError(message string) *Error {
	return &Error{
		Code:    ErrorCodeInternal,
		Status:  http.StatusInternalServerError,
		Type:    "InternalError",
		Message: message,
		Details: nil,
	}
}

// NewValidationError 는 검증 오류를 생성한다.
func NewValidationError(err error) *Error {
	return &Error{
		Code:    ErrorCodeValidation,
		Status:  http.StatusUnprocessableEntity,
		Type:    "ValidationError",
		Message: "Input validation failed",
		Details: validationDetails(err),
	}
}

// NewMissingField 는 누락 필드 오류를 생성한다.
func NewMissingField(field string) *Error {
	return &Error{
		Code:    ErrorCodeMissingField,
		Status:  http.StatusBadRequest,
		Type:    "MissingFieldError",
		Message: fmt.Sprintf("Field '%s' required", field),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidInput 는 입력 오류를 생성한다.
func NewInvalidInput(message string) *Error {
	return &Error{
		Code:    ErrorCodeInvalidInput,
		Status:  http.StatusBadRequest,
		Type:    "InvalidInputError",
		Message: message,
		Details: nil,
	}
}

// NewUnauthorized 는 인증 오류를 생성한다.
func NewUnauthorized(details map[string]any) *Error {
	return &Error{
		Code:    ErrorCodeUnauthorized,
		Status:  http.StatusUnauthorized,
		Type:    "UnauthorizedError",
		Message: "Invalid API key",
		Details: details,
	}
}

// NewRateLimitExceeded 는 요청 제한 오류를 생성한다.
func NewRateLimitExceeded(details map[string]any) *Error {
	return &Error{
		Code:    ErrorCodeHTTPRateLimit,
		Status:  http.StatusTooManyRequests,
		Type:    "HTTPRateLimitExceededError",
		Message: "Rate limit exceeded",
		Details: details,
	}
}

// NewNoProviderAvailable 는 적격 프로바이더 부재 오류를 생성한다.
func NewNoProviderAvailable() *Error {
	return &Error{
		Code:    ErrorCodeNoProvider,
		Status:  http.StatusServiceUnavailable,
		Type:    "NoProviderAvailableError",
		Message: "No provider available for this request",
		Details: nil,
	}
}

// NewAllProvidersFailed 는 전체 후보 실패 오류를 생성한다.
func NewAllProvidersFailed(attempts int) *Error {
	return &Error{
		Code:    ErrorCodeAllProvidersFailed,
		Status:  http.StatusBadGateway,
		Type:    "AllProvidersFailedError",
		Message: fmt.Sprintf("All providers failed after %d attempts", attempts),
		Details: map[string]any{"attempts": attempts},
	}
}

// NewProviderTimeout 는 프로바이더 타임아웃 오류를 생성한다.
func NewProviderTimeout(message string) *Error {
	return &Error{
		Code:    ErrorCodeProviderTimeout,
		Status:  http.StatusGatewayTimeout,
		Type:    "ProviderTimeoutError",
		Message: message,
		Details: nil,
	}
}

// NewUserBlocked 는 차단 사용자 오류를 생성한다.
func NewUserBlocked(userID string, reason string) *Error {
	details := map[string]any{"user_id": userID}
	if reason != "" {
		details["reason"] = reason
	}
	return &Error{
		Code:    ErrorCodeUserBlocked,
		Status:  http.StatusForbidden,
		Type:    "UserBlockedError",
		Message: fmt.Sprintf("User '%s' is blocked", userID),
		Details: details,
	}
}

// NewUnknownModel 는 카탈로그에 없는 모델 오류를 생성한다.
func NewUnknownModel(modelID string) *Error {
	return &Error{
		Code:    ErrorCodeUnknownModel,
		Status:  http.StatusBadRequest,
		Type:    "UnknownModelError",
		Message: fmt.Sprintf("Model '%s' not found", modelID),
		Details: map[string]any{"model_id": modelID},
	}
}

// FieldError 는 필드 오류 상세 정보다.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

func validationDetails(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))
		for _, validationErr := range validationErrors {
			fields = append(fields, FieldError{
				Field:   validationErr.Field(),
				Message: validationErr.Error(),
				Value:   validationErr.Value(),
			})
		}
		return map[string]any{"errors": fields}
	}

	return map[string]any{
		"errors": []FieldError{
			{
				Field:   "body",
				Message: err.Error(),
				Value:   nil,
			},
		},
	}
}

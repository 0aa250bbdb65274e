package util

import (
	"errors"
	"runtime/debug"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/config"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/response"
	"github.com/gofiber/fiber/v2"
)

type SuccessResponseFormat struct {
	Code       int
	Message    string
	Data       any
	Pagination *response.Pagination
	Meta       any
}

type OrderedSuccessResponse struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Meta       any                  `json:"meta,omitempty"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
	Data       any                  `json:"data,omitempty"`
}

type ErrorResponseFormat struct {
	Code       int
	Kind       string
	Message    string
	DevMessage string
	Details    any
	Trace      string
}

type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	response := OrderedSuccessResponse{
		Success:    true,
		Message:    params.Message,
		Data:       params.Data,
		Pagination: params.Pagination,
		Meta:       params.Meta,
	}
	code := params.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(response)
}

// ErrorResponse writes the standard error envelope. Developer fields are
// omitted in production.
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	response := OrderedErrorResponse{
		Success: false,
		Kind:    params.Kind,
		Message: params.Message,
	}
	if params.Details != nil {
		response.Details = params.Details
	}
	if !config.LoadAppConfig().IsProduction() {
		if len(errs) > 0 && errs[0] != nil {
			response.DevMessage = errs[0].Error()
			response.Trace = string(debug.Stack())
		}

		if params.DevMessage != "" {
			response.DevMessage = params.DevMessage
		}
		if params.Details != nil {
			response.Details = params.Details
		}
		if params.Trace != "" {
			response.Trace = params.Trace
		}
	}

	errorCode := params.Code
	if params.Code == 0 {
		errorCode = fiber.StatusInternalServerError
	}
	return c.Status(errorCode).JSON(response)
}

// StatusFor maps an error kind onto the HTTP status the API reports.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInsufficientData:
		return fiber.StatusBadRequest
	case apperror.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperror.KindOptimizerUnavailable:
		return fiber.StatusServiceUnavailable
	case apperror.KindInvalidTransition:
		return fiber.StatusConflict
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// AppErrorResponse renders err using its kind, message and details.
func AppErrorResponse(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	params := ErrorResponseFormat{
		Code:    StatusFor(kind),
		Message: "internal server error",
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		params.Message = appErr.Message
		if appErr.Details != nil {
			params.Details = appErr.Details
		}
	}
	params.Kind = string(kind)
	return ErrorResponse(c, params, err)
}

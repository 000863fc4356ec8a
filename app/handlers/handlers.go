// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/middleware"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

const requestTimeout = 30 * time.Second

// baseHandler carries the envelope writers and the validator shared by every handler
type baseHandler struct {
	validator *validator.Validate
}

func newBaseHandler() baseHandler {
	return baseHandler{validator: NewValidator()}
}

// NewValidator returns a validator that reports fields by their json, form or query name
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.ErrorResponse{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
		Code:       errorCode,
		Details:    details,
		Timestamp:  utils.UTCNowRFC3339(),
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success:    true,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Timestamp:  utils.UTCNowRFC3339(),
	})
}

// validate writes the validation failure envelope; sent is true when a response was written
func (h *baseHandler) validate(c fiber.Ctx, req any) (sent bool, err error) {
	verr := h.validator.Struct(req)
	if verr == nil {
		return false, nil
	}
	fieldErrors, ok := verr.(validator.ValidationErrors)
	if !ok {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", verr.Error())
	}
	details := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		details[fe.Field()] = getValidationErrorMessage(fe)
	}
	return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
}

// decodeJSON binds a JSON body and validates it
func (h *baseHandler) decodeJSON(c fiber.Ctx, req any) (sent bool, err error) {
	if err := c.Bind().JSON(req); err != nil {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return h.validate(c, req)
}

// decodeBody binds a JSON, urlencoded or multipart body and validates it
func (h *baseHandler) decodeBody(c fiber.Ctx, req any) (sent bool, err error) {
	if err := c.Bind().Body(req); err != nil {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return h.validate(c, req)
}

// pathID parses a positive numeric route parameter
func (h *baseHandler) pathID(c fiber.Ctx, name, message string) (uint, bool, error) {
	id, ok := utils.ParseID(c.Params(name))
	if !ok {
		return 0, false, h.ErrorResponse(c, fiber.StatusBadRequest, message, "INVALID_ID", fiber.Map{"param": name})
	}
	return id, true, nil
}

// parseIDOrNotFound parses an :id that addresses a record; a malformed id cannot match one
func parseIDOrNotFound(c fiber.Ctx) (uint, bool) {
	return utils.ParseID(c.Params("id"))
}

func (h *baseHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

// account returns the caller resolved by the auth middleware
func (h *baseHandler) account(c fiber.Ctx) (*models.Account, error) {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "Not authorized, token missing", "TOKEN_MISSING", nil)
	}
	return account, nil
}

func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, requestTimeout)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *baseHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)

	return ctx, cancel
}

func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get(businessflow.RequestIDKey)
}

// errorMapping binds a business sentinel to its HTTP answer
type errorMapping struct {
	match   func(error) bool
	status  int
	message string
	code    string
}

// flowErrors is scanned in order; more specific sentinels come first
var flowErrors = []errorMapping{
	{businessflow.IsAccountAlreadyExists, fiber.StatusConflict, "User with this email or contact already exists", "ACCOUNT_EXISTS"},
	{businessflow.IsDistrictAlreadyExists, fiber.StatusConflict, "District with this name already exists", "DISTRICT_EXISTS"},
	{businessflow.IsAreaAlreadyExists, fiber.StatusConflict, "Area already exists in this district", "AREA_EXISTS"},

	{businessflow.IsRoleChangeNotAllowed, fiber.StatusBadRequest, "Role change not allowed", "ROLE_CHANGE_NOT_ALLOWED"},
	{businessflow.IsPasswordsDoNotMatch, fiber.StatusBadRequest, "Passwords do not match", "PASSWORDS_DO_NOT_MATCH"},
	{businessflow.IsFranchiseIDRequired, fiber.StatusBadRequest, "Valid franchiseId is required", "FRANCHISE_ID_REQUIRED"},
	{businessflow.IsIdentifierRequired, fiber.StatusBadRequest, "Identifier (email/contact) and password are required", "IDENTIFIER_REQUIRED"},
	{businessflow.IsAvatarRequired, fiber.StatusBadRequest, "Avatar file is required", "AVATAR_REQUIRED"},
	{businessflow.IsTooManyImages, fiber.StatusBadRequest, fmt.Sprintf("Maximum %d images are allowed", utils.MaxPropertyImages), "TOO_MANY_IMAGES"},
	{businessflow.IsInvalidOTP, fiber.StatusBadRequest, "Invalid or expired OTP", "INVALID_OTP"},
	{businessflow.IsCaptchaFailed, fiber.StatusBadRequest, "Captcha verification failed", "CAPTCHA_FAILED"},
	{businessflow.IsInvalidStatus, fiber.StatusBadRequest, "Invalid status", "INVALID_STATUS"},
	{businessflow.IsNameRequired, fiber.StatusBadRequest, "Name is required", "NAME_REQUIRED"},
	{businessflow.IsRequirementEmpty, fiber.StatusBadRequest, "All required fields must be provided", "REQUIREMENT_EMPTY"},
	{businessflow.IsNotificationEmpty, fiber.StatusBadRequest, "Message is required", "MESSAGE_REQUIRED"},

	{businessflow.IsIncorrectPassword, fiber.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS"},
	{businessflow.IsTokenMissing, fiber.StatusUnauthorized, "Not authorized, token missing", "TOKEN_MISSING"},
	{businessflow.IsTokenInvalid, fiber.StatusUnauthorized, "Not authorized, token failed", "TOKEN_FAILED"},

	{businessflow.IsAccountInactive, fiber.StatusForbidden, "Your account is inactive. Please contact the administrator.", "ACCOUNT_INACTIVE"},
	{businessflow.IsFranchiseAccountInactive, fiber.StatusForbidden, "Your franchise account is inactive. Please contact the administrator.", "FRANCHISE_ACCOUNT_INACTIVE"},
	{businessflow.IsOwningFranchiseInactive, fiber.StatusForbidden, "Your franchise is inactive. Please contact the administrator.", "FRANCHISE_INACTIVE"},
	{businessflow.IsInsufficientRole, fiber.StatusForbidden, "Forbidden: insufficient role", "INSUFFICIENT_ROLE"},
	{businessflow.IsOutOfScope, fiber.StatusForbidden, "Forbidden: insufficient role", "OUT_OF_SCOPE"},
	{businessflow.IsPropertyScope, fiber.StatusForbidden, "Only agents or franchises can view their properties", "PROPERTY_SCOPE"},
	{businessflow.IsPropertyAccessDenied, fiber.StatusForbidden, "Not authorized to modify this property", "PROPERTY_ACCESS_DENIED"},
	{businessflow.IsNotificationForbidden, fiber.StatusForbidden, "Not authorized to delete this notification", "NOTIFICATION_FORBIDDEN"},

	{businessflow.IsAccountNotFound, fiber.StatusNotFound, "User does not exist", "ACCOUNT_NOT_FOUND"},
	{businessflow.IsUserNotFound, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND"},
	{businessflow.IsRecipientNotFound, fiber.StatusNotFound, "User not found", "RECIPIENT_NOT_FOUND"},
	{businessflow.IsFranchiseNotFound, fiber.StatusNotFound, "Franchise not found", "FRANCHISE_NOT_FOUND"},
	{businessflow.IsAgentNotInFranchise, fiber.StatusNotFound, "Agent not found in this franchise", "AGENT_NOT_IN_FRANCHISE"},
	{businessflow.IsAgentNotFound, fiber.StatusNotFound, "Agent not found", "AGENT_NOT_FOUND"},
	{businessflow.IsPropertyNotFound, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND"},
	{businessflow.IsEnquiryNotFound, fiber.StatusNotFound, "Enquiry not found", "ENQUIRY_NOT_FOUND"},
	{businessflow.IsRequirementNotFound, fiber.StatusNotFound, "Requirement not found", "REQUIREMENT_NOT_FOUND"},
	{businessflow.IsNotificationNotFound, fiber.StatusNotFound, "Notification not found", "NOTIFICATION_NOT_FOUND"},
	{businessflow.IsDistrictNotFound, fiber.StatusNotFound, "District not found", "DISTRICT_NOT_FOUND"},
	{businessflow.IsAreaNotFound, fiber.StatusNotFound, "Area not found", "AREA_NOT_FOUND"},
	{businessflow.IsStreamNotFound, fiber.StatusNotFound, "No stream found to delete.", "STREAM_NOT_FOUND"},

	{businessflow.IsAvatarUploadFailed, fiber.StatusInternalServerError, "Avatar upload failed. Please try again.", "AVATAR_UPLOAD_FAILED"},
}

// FlowError answers a failed flow call. entity names the resource in duplicate-key messages.
func (h *baseHandler) FlowError(c fiber.Ctx, err error, entity, operation string) error {
	if businessflow.IsDuplicateKey(err) {
		if field := businessflow.DuplicateField(err); field != "" {
			return h.ErrorResponse(c, fiber.StatusConflict,
				fmt.Sprintf("%s with this %s already exists", entity, field), "DUPLICATE_KEY", fiber.Map{"field": field})
		}
	}

	for _, m := range flowErrors {
		if m.match(err) {
			return h.ErrorResponse(c, m.status, m.message, m.code, nil)
		}
	}

	if businessflow.IsDuplicateKey(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, entity+" already exists", "DUPLICATE_KEY", nil)
	}

	log.Println(operation+" failed", err)
	code := businessflow.BusinessCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal Server Error", code, nil)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "url":
		return err.Field() + " must be a valid URL"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

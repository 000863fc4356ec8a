// Package businessflow contains the core business logic and use cases of the property marketplace
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/property-guru/repository"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrAccountAlreadyExists = errors.New("account with this email or contact already exists")
	ErrRoleChangeNotAllowed = errors.New("role change not allowed")
	ErrAvatarRequired       = errors.New("avatar file is required")
	ErrAvatarUploadFailed   = errors.New("avatar upload failed")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrIdentifierRequired   = errors.New("identifier is required")

	// Session errors
	ErrTokenMissing       = errors.New("session token missing")
	ErrTokenInvalid       = errors.New("session token invalid")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrOutOfScope         = errors.New("resource outside caller scope")
	ErrSessionIssueFailed = errors.New("failed to issue session")

	// Franchise errors
	ErrFranchiseNotFound        = errors.New("franchise not found")
	ErrFranchiseAccountInactive = errors.New("franchise account is inactive")
	ErrOwningFranchiseInactive  = errors.New("owning franchise is inactive")
	ErrPasswordsDoNotMatch      = errors.New("passwords do not match")
	ErrFranchiseIDRequired      = errors.New("valid franchise id is required")

	// Agent errors
	ErrAgentNotFound       = errors.New("agent not found")
	ErrAgentNotInFranchise = errors.New("agent not found in this franchise")

	// OTP errors
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// Property errors
	ErrPropertyNotFound     = errors.New("property not found")
	ErrTooManyImages        = errors.New("too many images")
	ErrPropertyScope        = errors.New("only agents or franchises own properties")
	ErrPropertyAccessDenied = errors.New("property access denied")

	// Enquiry and requirement errors
	ErrEnquiryNotFound     = errors.New("enquiry not found")
	ErrRequirementNotFound = errors.New("requirement not found")
	ErrRequirementEmpty    = errors.New("requirement text is empty")
	ErrCaptchaFailed       = errors.New("captcha verification failed")

	// Notification errors
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrNotificationForbidden = errors.New("not authorized for this notification")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrNotificationEmpty     = errors.New("notification message is empty")

	// District and area errors
	ErrDistrictNotFound      = errors.New("district not found")
	ErrDistrictAlreadyExists = errors.New("district already exists")
	ErrAreaNotFound          = errors.New("area not found")
	ErrAreaAlreadyExists     = errors.New("area already exists in this district")
	ErrNameRequired          = errors.New("name is required")

	// Stream errors
	ErrStreamNotFound = errors.New("no stream found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// BusinessCode returns the code of the outermost BusinessError in err
func BusinessCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountAlreadyExists(err error) bool {
	return errors.Is(err, ErrAccountAlreadyExists)
}

func IsRoleChangeNotAllowed(err error) bool {
	return errors.Is(err, ErrRoleChangeNotAllowed)
}

func IsAvatarRequired(err error) bool {
	return errors.Is(err, ErrAvatarRequired)
}

func IsAvatarUploadFailed(err error) bool {
	return errors.Is(err, ErrAvatarUploadFailed)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus)
}

func IsIdentifierRequired(err error) bool {
	return errors.Is(err, ErrIdentifierRequired)
}

func IsTokenMissing(err error) bool {
	return errors.Is(err, ErrTokenMissing)
}

func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid)
}

func IsInsufficientRole(err error) bool {
	return errors.Is(err, ErrInsufficientRole)
}

func IsOutOfScope(err error) bool {
	return errors.Is(err, ErrOutOfScope)
}

func IsSessionIssueFailed(err error) bool {
	return errors.Is(err, ErrSessionIssueFailed)
}

func IsFranchiseNotFound(err error) bool {
	return errors.Is(err, ErrFranchiseNotFound)
}

func IsFranchiseAccountInactive(err error) bool {
	return errors.Is(err, ErrFranchiseAccountInactive)
}

func IsOwningFranchiseInactive(err error) bool {
	return errors.Is(err, ErrOwningFranchiseInactive)
}

func IsPasswordsDoNotMatch(err error) bool {
	return errors.Is(err, ErrPasswordsDoNotMatch)
}

func IsFranchiseIDRequired(err error) bool {
	return errors.Is(err, ErrFranchiseIDRequired)
}

func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

func IsAgentNotInFranchise(err error) bool {
	return errors.Is(err, ErrAgentNotInFranchise)
}

func IsInvalidOTP(err error) bool {
	return errors.Is(err, ErrInvalidOTP)
}

func IsPropertyNotFound(err error) bool {
	return errors.Is(err, ErrPropertyNotFound)
}

func IsTooManyImages(err error) bool {
	return errors.Is(err, ErrTooManyImages)
}

func IsPropertyScope(err error) bool {
	return errors.Is(err, ErrPropertyScope)
}

func IsPropertyAccessDenied(err error) bool {
	return errors.Is(err, ErrPropertyAccessDenied)
}

func IsEnquiryNotFound(err error) bool {
	return errors.Is(err, ErrEnquiryNotFound)
}

func IsRequirementNotFound(err error) bool {
	return errors.Is(err, ErrRequirementNotFound)
}

func IsRequirementEmpty(err error) bool {
	return errors.Is(err, ErrRequirementEmpty)
}

func IsCaptchaFailed(err error) bool {
	return errors.Is(err, ErrCaptchaFailed)
}

func IsNotificationNotFound(err error) bool {
	return errors.Is(err, ErrNotificationNotFound)
}

func IsNotificationForbidden(err error) bool {
	return errors.Is(err, ErrNotificationForbidden)
}

func IsRecipientNotFound(err error) bool {
	return errors.Is(err, ErrRecipientNotFound)
}

func IsNotificationEmpty(err error) bool {
	return errors.Is(err, ErrNotificationEmpty)
}

func IsDistrictNotFound(err error) bool {
	return errors.Is(err, ErrDistrictNotFound)
}

func IsDistrictAlreadyExists(err error) bool {
	return errors.Is(err, ErrDistrictAlreadyExists)
}

func IsAreaNotFound(err error) bool {
	return errors.Is(err, ErrAreaNotFound)
}

func IsAreaAlreadyExists(err error) bool {
	return errors.Is(err, ErrAreaAlreadyExists)
}

func IsNameRequired(err error) bool {
	return errors.Is(err, ErrNameRequired)
}

func IsStreamNotFound(err error) bool {
	return errors.Is(err, ErrStreamNotFound)
}

// IsDuplicateKey reports a unique violation surfaced by the repository layer
func IsDuplicateKey(err error) bool {
	return errors.Is(err, repository.ErrDuplicateKey)
}

// DuplicateField names the column of a duplicate-key error, if known
func DuplicateField(err error) string {
	field, _ := repository.DuplicateField(err)
	return field
}

package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// TextCode constants surfaced to API clients alongside error messages
const (
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeNotLoggedIn        = "NOT_LOGGED_IN"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeUserGone           = "USER_NO_LONGER_EXISTS"
	TextCodeStaleCredential    = "PASSWORD_CHANGED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeEmailNotFound      = "EMAIL_NOT_FOUND"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeDeliveryFailed     = "DELIVERY_FAILED"
	TextCodeWrongPassword      = "WRONG_PASSWORD"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrMissingCredentials is returned when login input lacks email or password
var ErrMissingCredentials = errors.New("please provide email and password", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeMissingCredentials)

// ErrInvalidCredentials is the generic login failure. The message never
// reveals which of email or password was wrong.
var ErrInvalidCredentials = errors.New("incorrect email or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNotLoggedIn is returned when a request carries no bearer credential
var ErrNotLoggedIn = errors.New("you are not logged in, please log in to get access", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeNotLoggedIn)

// ErrTokenExpired is returned for credentials past their expiry
var ErrTokenExpired = errors.New("your session has expired, please log in again", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for credentials that fail signature or
// structural checks
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUserGone covers deleted or deactivated accounts still holding a
// structurally valid credential
var ErrUserGone = errors.New("the user belonging to this token no longer exists", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUserGone)

// ErrPasswordChanged rejects credentials issued before the identity's
// last password change
var ErrPasswordChanged = errors.New("user recently changed password, please log in again", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeStaleCredential)

// ErrForbidden is the role gate rejection
var ErrForbidden = errors.New("you do not have permission to perform this action", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrEmailNotFound is returned by forgotPassword for unknown addresses
var ErrEmailNotFound = errors.New("there is no user with that email address", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeEmailNotFound)

// ErrResetTokenInvalid covers both unknown and expired reset tokens so the
// two cases stay indistinguishable
var ErrResetTokenInvalid = errors.New("token is invalid or has expired", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrDeliveryFailed surfaces notifier failures after reset state rollback
var ErrDeliveryFailed = errors.New("there was an error sending the email, try again later", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeDeliveryFailed)

// ErrWrongPassword rejects an authenticated password change when the
// current password does not match
var ErrWrongPassword = errors.New("your current password is wrong", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeWrongPassword)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

package auth_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/trailhead-api/auth"
)

func TestSentinelErrorShape(t *testing.T) {
	tests := []struct {
		err      error
		code     int
		textCode string
	}{
		{auth.ErrMissingCredentials, 400, auth.TextCodeMissingCredentials},
		{auth.ErrInvalidCredentials, 401, auth.TextCodeInvalidCreds},
		{auth.ErrNotLoggedIn, 401, auth.TextCodeNotLoggedIn},
		{auth.ErrTokenExpired, 401, auth.TextCodeTokenExpired},
		{auth.ErrTokenMalformed, 401, auth.TextCodeTokenMalformed},
		{auth.ErrUserGone, 401, auth.TextCodeUserGone},
		{auth.ErrPasswordChanged, 401, auth.TextCodeStaleCredential},
		{auth.ErrForbidden, 403, auth.TextCodeForbidden},
		{auth.ErrEmailNotFound, 404, auth.TextCodeEmailNotFound},
		{auth.ErrResetTokenInvalid, 400, auth.TextCodeResetTokenInvalid},
		{auth.ErrDeliveryFailed, 500, auth.TextCodeDeliveryFailed},
		{auth.ErrWrongPassword, 401, auth.TextCodeWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			var richErr *goerrors.Error
			assert.True(t, goerrors.As(tt.err, &richErr))
			assert.Equal(t, tt.code, richErr.Code)
			assert.Equal(t, tt.textCode, richErr.TextCode)
			assert.NotEmpty(t, richErr.Message)
		})
	}
}

func TestInvalidCredentialsMessageIsGeneric(t *testing.T) {
	var richErr *goerrors.Error
	assert.True(t, goerrors.As(auth.ErrInvalidCredentials, &richErr))

	// the message must not reveal which part of the credential failed
	assert.NotContains(t, richErr.Message, "not found")
	assert.NotContains(t, richErr.Message, "exist")
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, auth.IsTokenExpiredError(nil))
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(fmt.Errorf("jwt: token is expired by 3h")))
	assert.False(t, auth.IsTokenExpiredError(errors.New("some other failure")))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, auth.IsMalformedError(nil))
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("token is malformed")))
	assert.True(t, auth.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(errors.New("some other failure")))
}

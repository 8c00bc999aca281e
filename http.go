package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// Envelope status labels. Client-caused failures report "fail",
// server-side failures report "error".
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// EnvelopeData carries the sanitized user payload on success responses
type EnvelopeData struct {
	User *PublicUser `json:"user,omitempty"`
}

// SuccessEnvelope is the wire shape of every successful auth response
type SuccessEnvelope struct {
	Status  string        `json:"status"`
	Token   string        `json:"token,omitempty"`
	Message string        `json:"message,omitempty"`
	Data    *EnvelopeData `json:"data,omitempty"`
}

// ErrorEnvelope is the wire shape of every failure response. It carries
// no internal detail beyond the public message and text code.
type ErrorEnvelope struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	TextCode string `json:"code,omitempty"`
}

// RenderError is the single boundary translator: it maps any error to
// the wire envelope and status code. Unclassified errors become a 500
// with a generic message so store or notifier internals never leak.
func RenderError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	message := "something went very wrong"
	textCode := ""

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Code > 0 {
			status = richErr.Code
		} else {
			status = statusFromCategory(richErr.Category)
		}

		message = richErr.Message
		textCode = richErr.TextCode

		if status >= http.StatusInternalServerError && richErr.TextCode != TextCodeDeliveryFailed {
			// do not echo internal wrap messages
			message = "something went very wrong"
		}
		if richErr.TextCode == TextCodeDeliveryFailed {
			message = ErrDeliveryFailed.Message
		}
	}

	return c.Status(status).JSON(ErrorEnvelope{
		Status:   statusLabel(status),
		Message:  message,
		TextCode: textCode,
	})
}

func statusLabel(status int) string {
	if status >= 400 && status < 500 {
		return StatusFail
	}
	return StatusError
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryBadInput, errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

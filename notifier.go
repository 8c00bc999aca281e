package auth

import (
	"context"
	"fmt"
)

// Email is an outbound notification payload
type Email struct {
	To      string
	Subject string
	Body    string
}

// ResetEmail builds the password reset notification. The raw token only
// ever appears inside the reset URL handed to the notifier.
func ResetEmail(to, resetURL string) Email {
	return Email{
		To:      to,
		Subject: "Your password reset token (valid for 10 min)",
		Body: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\nIf you didn't forget your password, please ignore this email!",
			resetURL,
		),
	}
}

// LogNotifier writes notifications to the logger instead of delivering
// them. Default for development setups.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Send(ctx context.Context, msg Email) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	logger.Info("to: %s", msg.To)
	logger.Info("subject: %s", msg.Subject)

	return nil
}

var _ Notifier = LogNotifier{}

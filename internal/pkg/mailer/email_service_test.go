package mailer

import (
	"testing"

	"doc-review-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"gopkg.in/gomail.v2"
)

func TestEmailService_Unconfigured(t *testing.T) {
	svc := NewEmailService("", 587, "", "", logger.NewNopLogger())
	assert.False(t, svc.Configured())

	err := svc.Send(gomail.NewMessage())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestEmailService_Configured(t *testing.T) {
	svc := NewEmailService("smtp.example.com", 587, "user", "pass", logger.NewNopLogger())
	assert.True(t, svc.Configured())
}

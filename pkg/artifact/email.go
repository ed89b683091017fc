package artifact

import (
	"strings"

	"gopkg.in/gomail.v2"
)

// Email is the investor follow-up, independent of how it is delivered
type Email struct {
	From    string
	To      string
	Subject string
	Body    string
}

// ParseEmailText pulls a leading "Subject:" line out of generated email text.
// The fallback subject is used when the text has none.
func ParseEmailText(text, fallbackSubject string) (subject, body string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	if value, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:"); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), strings.TrimSpace(rest)
	}
	return fallbackSubject, text
}

func NewMessage(e Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.From)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Body)
	return m
}

package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/mwellner/subhub/internal/pkg/env"
)

// SendMail delivers an HTML email through the configured SMTP relay. Auth is
// optional so local development can run against an unauthenticated mailcatcher.
func SendMail(to, subject, htmlBody string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "1025")
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@localhost"
		log.Printf("SMTP_SENDER not set, falling back to %s", sender)
	}

	var auth smtp.Auth
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%s", host, port)
	if err := smtp.SendMail(addr, auth, sender, []string{to}, []byte(msg.String())); err != nil {
		log.Printf("SMTP send to %s via %s failed: %v", to, addr, err)
		return err
	}
	return nil
}

package mail

import (
	"fmt"

	"github.com/mwellner/subhub/internal/pkg/env"
)

// Mailer renders and sends the transactional emails of the account lifecycle.
// It also serves as the payment notifier for the billing engine.
type Mailer struct {
	appName string
	baseURL string
}

func NewMailer() *Mailer {
	return &Mailer{
		appName: env.GetEnv("APP_NAME", "SubHub"),
		baseURL: env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
	}
}

func (m *Mailer) Welcome(to, name string) error {
	body := fmt.Sprintf(`<h2>Welcome to %s, %s!</h2>
<p>Your account is ready. Head over to <a href="%s">your dashboard</a> to get started.</p>`,
		m.appName, name, m.baseURL)
	return SendMail(to, fmt.Sprintf("Welcome to %s", m.appName), body)
}

func (m *Mailer) ResetPassword(to, resetToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, resetToken)
	body := fmt.Sprintf(`<h2>Reset your password</h2>
<p>Someone requested a password reset for your %s account. The link below is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If this was not you, you can ignore this email.</p>`, m.appName, link)
	return SendMail(to, "Reset your password", body)
}

func (m *Mailer) ConfirmEmail(to, confirmToken string) error {
	link := fmt.Sprintf("%s/confirm-email?token=%s", m.baseURL, confirmToken)
	body := fmt.Sprintf(`<h2>Confirm your email address</h2>
<p>Click the link below to confirm this address for your %s account.</p>
<p><a href="%s">Confirm email</a></p>`, m.appName, link)
	return SendMail(to, "Confirm your email address", body)
}

// PaymentSucceeded implements the billing notifier contract.
func (m *Mailer) PaymentSucceeded(email, invoiceURL string) error {
	body := fmt.Sprintf(`<h2>Payment received</h2>
<p>Thanks, your %s subscription payment went through.</p>`, m.appName)
	if invoiceURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">View your invoice</a></p>`, invoiceURL)
	}
	return SendMail(email, "Payment received", body)
}

// PaymentFailed implements the billing notifier contract.
func (m *Mailer) PaymentFailed(email string) error {
	body := fmt.Sprintf(`<h2>Payment failed</h2>
<p>We could not collect the latest payment for your %s subscription and your plan has been downgraded.</p>
<p><a href="%s/account">Update your payment method</a> to restore your plan.</p>`,
		m.appName, m.baseURL)
	return SendMail(email, "Action required: payment failed", body)
}

package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
)

// SendMail sends one email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// BillingNotifier delivers subscription lifecycle emails to the merchant
// address on file for a shop. A missing SMTP host disables delivery, the
// event is logged and dropped so billing flows never block on mail.
type BillingNotifier struct{}

func NewBillingNotifier() *BillingNotifier {
	return &BillingNotifier{}
}

// Notify implements billing.Notifier.
func (n *BillingNotifier) Notify(shopDomain, event, plan string, price float64) error {
	if env.GetEnv("SMTP_HOST", "") == "" {
		log.Printf("SMTP not configured, skipping %s email for %s", event, shopDomain)
		return nil
	}

	to := merchantAddress(shopDomain)
	planName, ok := billing.DisplayNameOf(plan)
	if !ok {
		planName = plan
	}

	var subject, body string
	switch event {
	case billing.EventWelcome:
		subject = fmt.Sprintf("Welcome to the %s", planName)
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your subscription to the <strong>%s</strong> ($%.2f/month) is now active. Thanks for subscribing!</p>",
			shopDomain, planName, price,
		)
	case billing.EventCancellation:
		subject = "Your subscription has been cancelled"
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your <strong>%s</strong> subscription has been cancelled. You can resubscribe at any time from the pricing page.</p>",
			shopDomain, planName,
		)
	case billing.EventExpiration:
		subject = "Your subscription has expired"
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your <strong>%s</strong> subscription has expired. Pick a plan on the pricing page to keep using the app.</p>",
			shopDomain, planName,
		)
	default:
		log.Printf("Unknown billing email event %q for %s, skipping", event, shopDomain)
		return nil
	}

	return SendMail(to, subject, body)
}

// merchantAddress derives the notification recipient. Shops without a
// stored contact get mail at the shop domain's billing alias.
func merchantAddress(shopDomain string) string {
	if override := env.GetEnv("BILLING_NOTIFY_OVERRIDE", ""); override != "" {
		return override
	}
	return fmt.Sprintf("billing@%s", shopDomain)
}

// Package notification delivers order-confirmation mail. Delivery is fire and
// forget: a failed send is logged and never affects payment or order state.
package notification

import (
	"fmt"
	"log"
	"net/smtp"
	"os"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

type Sender interface {
	SendOrderConfirmation(to string, order models.Order) error
}

// NewFromEnv returns an SMTP-backed sender when SMTP_HOST is configured and a
// log-only sender otherwise, so local runs don't need a mail relay.
func NewFromEnv() Sender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return logSender{}
	}
	return &smtpSender{
		host:     host,
		port:     envOr("SMTP_PORT", "587"),
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
	}
}

// Fire sends in a background goroutine and logs the outcome.
func Fire(s Sender, to string, order models.Order) {
	go func() {
		if err := s.SendOrderConfirmation(to, order); err != nil {
			log.Printf("order %d: confirmation mail to %s failed: %v", order.ID, to, err)
		}
	}()
}

type logSender struct{}

func (logSender) SendOrderConfirmation(to string, order models.Order) error {
	log.Printf("order %d: confirmation for %s (total %.2f)", order.ID, to, order.TotalAmount)
	return nil
}

type smtpSender struct {
	host     string
	port     string
	from     string
	password string
}

func (s *smtpSender) SendOrderConfirmation(to string, order models.Order) error {
	subject := fmt.Sprintf("Order #%d confirmed", order.ID)
	body := fmt.Sprintf(
		"Your payment was received.\r\nOrder: #%d\r\nTotal: %.2f\r\nItems: %d\r\n",
		order.ID, order.TotalAmount, len(order.Items),
	)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.from, to, subject, body))

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, msg)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

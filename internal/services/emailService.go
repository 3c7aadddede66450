package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"energynexus/internal/config"
)

type EmailSender interface {
	SendOTPEmail(ctx context.Context, to, code, subject string) error
}

type emailService struct {
	from   string
	dialer *gomail.Dialer
}

func NewEmailService(cfg config.SMTPConfig) EmailSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &emailService{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (e *emailService) SendOTPEmail(ctx context.Context, to, code, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", otpEmailBody(code))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func otpEmailBody(code string) string {
	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif">
<h2>Energy Nexus</h2>
<p>Your one-time code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p>
<p>The code expires in 10 minutes. Do not share it with anyone.</p>
</div>`, code)
}

package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"energynexus/internal/config"
)

type SMSSender interface {
	SendOTPSMS(ctx context.Context, phone, code string) error
}

// smsGateway posts form-encoded messages to a bulk SMS HTTP gateway.
type smsGateway struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
}

func NewSMSService(cfg config.SMSConfig) SMSSender {
	return &smsGateway{
		url:      cfg.GatewayURL,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *smsGateway) SendOTPSMS(ctx context.Context, phone, code string) error {
	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("sender", s.senderID)
	form.Set("numbers", "91"+phone)
	form.Set("message", fmt.Sprintf("Your Energy Nexus OTP is %s. It is valid for 10 minutes. Do not share it with anyone.", code))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway failed with status %d", resp.StatusCode)
	}
	return nil
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"energynexus/internal/metrics"
	"energynexus/internal/models"
	"energynexus/internal/utils"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"

	deliveryTimeout = 15 * time.Second
)

// NotificationService delivers codes in the background. Delivery failures
// are logged and counted but never returned to the caller.
type NotificationService interface {
	Dispatch(user *models.User, code string, purpose models.OTPPurpose, channels ...Channel)
	Wait()
}

type notificationService struct {
	sms   SMSSender
	email EmailSender
	wg    sync.WaitGroup
}

func NewNotificationService(sms SMSSender, email EmailSender) NotificationService {
	return &notificationService{sms: sms, email: email}
}

func (n *notificationService) Dispatch(user *models.User, code string, purpose models.OTPPurpose, channels ...Channel) {
	phone, email, userID := user.Phone, user.Email, user.ID.Hex()
	for _, ch := range channels {
		n.wg.Add(1)
		go func(ch Channel) {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()

			var err error
			switch ch {
			case ChannelSMS:
				err = n.sms.SendOTPSMS(ctx, phone, code)
			case ChannelEmail:
				err = n.email.SendOTPEmail(ctx, email, code, emailSubject(purpose))
			}
			if err != nil {
				metrics.OTPDeliveriesTotal.WithLabelValues(string(ch), "failed").Inc()
				log.Error().Err(err).Str("user_id", userID).Str("channel", string(ch)).Str("purpose", string(purpose)).Msg("OTP delivery failed")
				return
			}
			metrics.OTPDeliveriesTotal.WithLabelValues(string(ch), "sent").Inc()
			log.Info().Str("user_id", userID).Str("channel", string(ch)).Str("purpose", string(purpose)).Msg("OTP delivered")
		}(ch)
	}
}

// Wait blocks until every dispatched delivery has finished.
func (n *notificationService) Wait() {
	n.wg.Wait()
}

func emailSubject(purpose models.OTPPurpose) string {
	if purpose == models.OTPPurposePasswordReset {
		return "Energy Nexus - Password Reset OTP"
	}
	return "Energy Nexus - Verify Your Account"
}

// LogSender stands in for a channel that has no provider configured.
type LogSender struct {
	Development bool
}

func (l LogSender) SendOTPSMS(ctx context.Context, phone, code string) error {
	l.log("sms", utils.MaskPhone(phone), code)
	return nil
}

func (l LogSender) SendOTPEmail(ctx context.Context, to, code, subject string) error {
	l.log("email", utils.MaskEmail(to), code)
	return nil
}

func (l LogSender) log(channel, recipient, code string) {
	log.Info().Str("channel", channel).Str("recipient", recipient).Msg("OTP delivery provider not configured, message not sent")
	if l.Development {
		log.Debug().Str("channel", channel).Str("recipient", recipient).Str("otp", code).Msg("Development OTP")
	}
}

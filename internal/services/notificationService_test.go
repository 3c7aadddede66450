package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"energynexus/internal/models"
)

type recordingSender struct {
	mu     sync.Mutex
	sms    []string
	emails []string
	err    error
}

func (r *recordingSender) SendOTPSMS(ctx context.Context, phone, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sms = append(r.sms, phone+":"+code)
	return r.err
}

func (r *recordingSender) SendOTPEmail(ctx context.Context, to, code, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, to+":"+code+":"+subject)
	return r.err
}

func TestNotificationService_DispatchAndWait(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotificationService(sender, sender)
	user := &models.User{ID: primitive.NewObjectID(), Email: "asha@x.com", Phone: "9876543210"}

	n.Dispatch(user, "482913", models.OTPPurposeVerification, ChannelSMS, ChannelEmail)
	n.Wait()

	assert.Equal(t, []string{"9876543210:482913"}, sender.sms)
	assert.Equal(t, []string{"asha@x.com:482913:Energy Nexus - Verify Your Account"}, sender.emails)
}

func TestNotificationService_FailuresDoNotPropagate(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	n := NewNotificationService(sender, sender)
	user := &models.User{ID: primitive.NewObjectID(), Email: "asha@x.com", Phone: "9876543210"}

	assert.NotPanics(t, func() {
		n.Dispatch(user, "482913", models.OTPPurposePasswordReset, ChannelEmail)
		n.Wait()
	})
	assert.Equal(t, []string{"asha@x.com:482913:Energy Nexus - Password Reset OTP"}, sender.emails)
	assert.Empty(t, sender.sms)
}

func TestLogSender(t *testing.T) {
	s := LogSender{Development: true}
	assert.NoError(t, s.SendOTPSMS(context.Background(), "9876543210", "482913"))
	assert.NoError(t, s.SendOTPEmail(context.Background(), "asha@x.com", "482913", "subject"))
}

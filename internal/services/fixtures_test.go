package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"energynexus/internal/models"
	"energynexus/internal/ratelimit"
	"energynexus/internal/repositories"
)

const testSecret = "test-secret-key-that-is-at-least-32-bytes"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type dispatched struct {
	UserID   string
	Code     string
	Purpose  models.OTPPurpose
	Channels []Channel
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []dispatched
}

func (n *fakeNotifier) Dispatch(user *models.User, code string, purpose models.OTPPurpose, channels ...Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, dispatched{UserID: user.ID.Hex(), Code: code, Purpose: purpose, Channels: channels})
}

func (n *fakeNotifier) Wait() {}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last(t *testing.T) dispatched {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "expected a dispatched OTP")
	return n.sent[len(n.sent)-1]
}

type fakeLimiter struct {
	err error
}

func (l *fakeLimiter) Allow(context.Context, string) error { return l.err }

type fixture struct {
	repo     repositories.UserRepository
	clock    *fakeClock
	limiter  *fakeLimiter
	attempts *fakeLimiter
	notifier *fakeNotifier
	tokens   *tokenService
	otps     *otpService
	auth     *authService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repositories.NewMemoryUserRepository()
	clock := newFakeClock()
	limiter := &fakeLimiter{}
	attempts := &fakeLimiter{}
	notifier := &fakeNotifier{}

	tokens, err := newTokenService(testSecret, 7*24*time.Hour, clock.Now)
	require.NoError(t, err)
	otps := newOTPService(repo, limiter, attempts, 10*time.Minute, clock.Now)

	auth := NewAuthService(repo, NewPasswordService(bcrypt.MinCost), otps, tokens, notifier, 8).(*authService)
	auth.now = clock.Now

	return &fixture{repo: repo, clock: clock, limiter: limiter, attempts: attempts, notifier: notifier, tokens: tokens, otps: otps, auth: auth}
}

func ashaSignup() models.SignupRequest {
	return models.SignupRequest{
		FullName: "Asha Rao",
		Email:    "asha@x.com",
		Phone:    "9876543210",
		Password: "p@ssw0rd1",
		Pincode:  "560001",
	}
}

// signupVerified registers Asha and confirms the account with the issued code.
func (f *fixture) signupVerified(t *testing.T) string {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), ashaSignup())
	require.NoError(t, err)
	_, err = f.auth.VerifyOTP(context.Background(), models.VerifyOTPRequest{UserID: res.UserID, OTP: f.notifier.last(t).Code})
	require.NoError(t, err)
	return res.UserID
}

var _ ratelimit.OTPLimiter = (*fakeLimiter)(nil)

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"energynexus/internal/metrics"
	"energynexus/internal/models"
	"energynexus/internal/ratelimit"
	"energynexus/internal/repositories"
	"energynexus/internal/utils"
)

// OTPService issues and checks the six-digit codes stored on an account.
// Each purpose has its own slot; issuing overwrites the live code.
type OTPService interface {
	Issue(ctx context.Context, user *models.User, purpose models.OTPPurpose) (models.Challenge, error)
	Verify(ctx context.Context, user *models.User, purpose models.OTPPurpose, code string, onSuccess models.UserUpdate) (*models.User, error)
	Throttle(ctx context.Context, user *models.User, purpose models.OTPPurpose) error
}

type otpService struct {
	userRepo repositories.UserRepository
	// limiter throttles issuing codes; attempts caps verification tries.
	limiter  ratelimit.OTPLimiter
	attempts ratelimit.OTPLimiter
	ttl      time.Duration
	now      func() time.Time
}

func NewOTPService(userRepo repositories.UserRepository, limiter, attempts ratelimit.OTPLimiter, ttl time.Duration) OTPService {
	return newOTPService(userRepo, limiter, attempts, ttl, time.Now)
}

func newOTPService(userRepo repositories.UserRepository, limiter, attempts ratelimit.OTPLimiter, ttl time.Duration, now func() time.Time) *otpService {
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}
	if attempts == nil {
		attempts = ratelimit.NoopLimiter{}
	}
	return &otpService{userRepo: userRepo, limiter: limiter, attempts: attempts, ttl: ttl, now: now}
}

func (s *otpService) Issue(ctx context.Context, user *models.User, purpose models.OTPPurpose) (models.Challenge, error) {
	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return models.Challenge{}, fmt.Errorf("generate otp: %w", err)
	}

	challenge := models.Challenge{Code: code, ExpiresAt: s.now().UTC().Add(s.ttl)}
	updated, err := s.userRepo.Update(ctx, user.ID, purpose.Patch(challenge))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Challenge{}, ErrNotFound
		}
		return models.Challenge{}, err
	}
	*user = *updated

	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	log.Debug().Str("user_id", user.ID.Hex()).Str("purpose", string(purpose)).Time("expires_at", challenge.ExpiresAt).Msg("OTP issued")
	return challenge, nil
}

// Verify accepts code only while now is strictly before the stored expiry.
// The check and the clearing of the challenge, together with onSuccess, run
// as one conditional write against the store, so user may be stale and a
// code still succeeds at most once. Wrong, expired, replaced and missing codes
// all return ErrInvalidOrExpired. Too many tries for one account and purpose
// return ErrTooManyRequests, even with the right code.
func (s *otpService) Verify(ctx context.Context, user *models.User, purpose models.OTPPurpose, code string, onSuccess models.UserUpdate) (*models.User, error) {
	err := s.attempts.Allow(ctx, "verify:"+user.ID.Hex()+":"+string(purpose))
	if errors.Is(err, ratelimit.ErrThrottled) {
		metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "throttled").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Str("purpose", string(purpose)).Msg("Too many OTP verification attempts")
		return nil, ErrTooManyRequests
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.ConsumeChallenge(ctx, user.ID, purpose, code, s.now(), onSuccess)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "failed").Inc()
			log.Warn().Str("user_id", user.ID.Hex()).Str("purpose", string(purpose)).Msg("OTP verification failed")
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}

	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "success").Inc()
	return updated, nil
}

// Throttle reports ErrTooManyRequests when another code for this account and
// purpose would exceed the configured cooldown or window.
func (s *otpService) Throttle(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	err := s.limiter.Allow(ctx, user.ID.Hex()+":"+string(purpose))
	if errors.Is(err, ratelimit.ErrThrottled) {
		metrics.OTPThrottledTotal.WithLabelValues(string(purpose)).Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Str("purpose", string(purpose)).Msg("OTP request throttled")
		return ErrTooManyRequests
	}
	return err
}

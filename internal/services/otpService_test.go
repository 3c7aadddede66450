package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energynexus/internal/models"
	"energynexus/internal/ratelimit"
)

func createUser(t *testing.T, f *fixture) *models.User {
	t.Helper()
	user, err := f.repo.Create(context.Background(), &models.User{
		FullName: "Asha Rao",
		Email:    "asha@x.com",
		Phone:    "9876543210",
		Pincode:  "560001",
	})
	require.NoError(t, err)
	return user
}

func TestOTPService_Issue(t *testing.T) {
	f := newFixture(t)
	user := createUser(t, f)

	challenge, err := f.otps.Issue(context.Background(), user, models.OTPPurposeVerification)
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9]\d{5}$`, challenge.Code)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), challenge.ExpiresAt)

	stored, err := f.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.Code, stored.OTP)
	require.NotNil(t, stored.OTPExpiry)
	assert.True(t, challenge.ExpiresAt.Equal(*stored.OTPExpiry))
	assert.Empty(t, stored.PasswordResetOTP, "purposes keep independent slots")
}

func TestOTPService_VerifyIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := createUser(t, f)

	challenge, err := f.otps.Issue(ctx, user, models.OTPPurposePasswordReset)
	require.NoError(t, err)

	updated, err := f.otps.Verify(ctx, user, models.OTPPurposePasswordReset, challenge.Code, models.UserUpdate{})
	require.NoError(t, err)
	assert.Empty(t, updated.PasswordResetOTP)
	assert.Nil(t, updated.PasswordResetExpiry)

	_, err = f.otps.Verify(ctx, updated, models.OTPPurposePasswordReset, challenge.Code, models.UserUpdate{})
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestOTPService_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := createUser(t, f)
	challenge, err := f.otps.Issue(ctx, user, models.OTPPurposeVerification)
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute - time.Millisecond)
	_, err = f.otps.Verify(ctx, user, models.OTPPurposeVerification, challenge.Code, models.UserUpdate{})
	assert.NoError(t, err, "code is accepted strictly before expiry")

	challenge, err = f.otps.Issue(ctx, user, models.OTPPurposeVerification)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	_, expiredErr := f.otps.Verify(ctx, user, models.OTPPurposeVerification, challenge.Code, models.UserUpdate{})
	_, wrongErr := f.otps.Verify(ctx, user, models.OTPPurposeVerification, "000000", models.UserUpdate{})

	require.Error(t, expiredErr)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, expiredErr, ErrInvalidOrExpired)
	assert.Equal(t, wrongErr.Error(), expiredErr.Error())
}

func TestOTPService_ReissueInvalidatesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := createUser(t, f)

	first, err := f.otps.Issue(ctx, user, models.OTPPurposeVerification)
	require.NoError(t, err)
	second, err := f.otps.Issue(ctx, user, models.OTPPurposeVerification)
	require.NoError(t, err)

	if first.Code != second.Code {
		_, err = f.otps.Verify(ctx, user, models.OTPPurposeVerification, first.Code, models.UserUpdate{})
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	}
	_, err = f.otps.Verify(ctx, user, models.OTPPurposeVerification, second.Code, models.UserUpdate{})
	assert.NoError(t, err)
}

func TestOTPService_Throttle(t *testing.T) {
	f := newFixture(t)
	user := createUser(t, f)

	assert.NoError(t, f.otps.Throttle(context.Background(), user, models.OTPPurposeVerification))

	f.limiter.err = ratelimit.ErrThrottled
	assert.ErrorIs(t, f.otps.Throttle(context.Background(), user, models.OTPPurposeVerification), ErrTooManyRequests)
}

func TestOTPService_ReplacedCodeRejectedAgainstStaleCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := createUser(t, f)

	first, err := f.otps.Issue(ctx, user, models.OTPPurposePasswordReset)
	require.NoError(t, err)
	stale := user.Clone()

	var second models.Challenge
	for {
		second, err = f.otps.Issue(ctx, user, models.OTPPurposePasswordReset)
		require.NoError(t, err)
		if second.Code != first.Code {
			break
		}
	}

	_, err = f.otps.Verify(ctx, stale, models.OTPPurposePasswordReset, first.Code, models.UserUpdate{})
	assert.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = f.otps.Verify(ctx, stale, models.OTPPurposePasswordReset, second.Code, models.UserUpdate{})
	assert.NoError(t, err)
}

func TestOTPService_VerifyAttemptsAreCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otps := newOTPService(f.repo, f.limiter, ratelimit.NewMemoryLimiter(0, 10*time.Minute, 3), 10*time.Minute, f.clock.Now)
	user := createUser(t, f)

	challenge, err := otps.Issue(ctx, user, models.OTPPurposeVerification)
	require.NoError(t, err)

	wrong := "000000"
	if challenge.Code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		_, err = otps.Verify(ctx, user, models.OTPPurposeVerification, wrong, models.UserUpdate{})
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	}

	_, err = otps.Verify(ctx, user, models.OTPPurposeVerification, challenge.Code, models.UserUpdate{})
	assert.ErrorIs(t, err, ErrTooManyRequests)

	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.Code, stored.OTP, "a throttled attempt leaves the code in place")

	_, err = otps.Verify(ctx, user, models.OTPPurposePasswordReset, wrong, models.UserUpdate{})
	assert.ErrorIs(t, err, ErrInvalidOrExpired, "purposes are counted separately")
}

func TestOTPService_VerifyThrottled(t *testing.T) {
	f := newFixture(t)
	user := createUser(t, f)

	f.attempts.err = ratelimit.ErrThrottled
	_, err := f.otps.Verify(context.Background(), user, models.OTPPurposeVerification, "123456", models.UserUpdate{})
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"energynexus/internal/database"
	"energynexus/internal/models"
)

func newUser(email, phone string) *models.User {
	return &models.User{
		FullName:     "Asha Rao",
		Email:        email,
		Phone:        phone,
		PasswordHash: "hash",
		Pincode:      "560001",
	}
}

func runUserRepositoryContract(t *testing.T, repo UserRepository) {
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	t.Run("Create and Get User", func(t *testing.T) {
		created, err := repo.Create(ctx, newUser("Asha@X.com", "9876543210"))
		require.NoError(t, err)
		assert.False(t, created.ID.IsZero())
		assert.Equal(t, "asha@x.com", created.Email)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "hash", found.PasswordHash)
	})

	t.Run("Find by email is case-insensitive", func(t *testing.T) {
		found, err := repo.FindByEmailOrPhone(ctx, "  ASHA@x.COM ")
		require.NoError(t, err)
		assert.Equal(t, "9876543210", found.Phone)
	})

	t.Run("Find by phone is exact", func(t *testing.T) {
		found, err := repo.FindByEmailOrPhone(ctx, "9876543210")
		require.NoError(t, err)
		assert.Equal(t, "asha@x.com", found.Email)

		_, err = repo.FindByEmailOrPhone(ctx, "+919876543210")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Duplicate email or phone is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, newUser("asha@x.com", "9000000001"))
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = repo.Create(ctx, newUser("other@x.com", "9876543210"))
		assert.ErrorIs(t, err, ErrDuplicate)

		count, err := repo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Update merges and clears challenges", func(t *testing.T) {
		user, err := repo.FindByEmailOrPhone(ctx, "asha@x.com")
		require.NoError(t, err)

		expiry := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)
		updated, err := repo.Update(ctx, user.ID, models.OTPPurposeVerification.Patch(models.Challenge{Code: "123456", ExpiresAt: expiry}))
		require.NoError(t, err)
		assert.Equal(t, "123456", updated.OTP)
		require.NotNil(t, updated.OTPExpiry)
		assert.True(t, expiry.Equal(*updated.OTPExpiry))
		assert.False(t, updated.UpdatedAt.Before(user.UpdatedAt))

		verified := true
		update := models.OTPPurposeVerification.ClearPatch()
		update.IsVerified = &verified
		updated, err = repo.Update(ctx, user.ID, update)
		require.NoError(t, err)
		assert.Empty(t, updated.OTP)
		assert.Nil(t, updated.OTPExpiry)
		assert.True(t, updated.IsVerified)
		assert.Equal(t, "Asha Rao", updated.FullName)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)

		name := "Nobody"
		_, err = repo.Update(ctx, primitive.NewObjectID(), models.UserUpdate{FullName: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Concurrent creates with one email", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				phone := "70000000" + string(rune('0'+i)) + "0"
				_, errs[i] = repo.Create(ctx, newUser("race@x.com", phone))
			}(i)
		}
		wg.Wait()

		created, dup := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicate):
				dup++
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, workers-1, dup)
	})

	t.Run("New accounts carry default settings", func(t *testing.T) {
		created, err := repo.Create(ctx, newUser("settings@x.com", "9111111110"))
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), created.Settings)

		security := created.Settings.Security
		security.TwoFactorAuth = true
		enabled := true
		updated, err := repo.Update(ctx, created.ID, models.UserUpdate{Security: &security, TwoFactorEnabled: &enabled})
		require.NoError(t, err)
		assert.True(t, updated.Settings.Security.TwoFactorAuth)
		assert.True(t, updated.TwoFactorEnabled)
		assert.Equal(t, models.DefaultSettings().Notifications, updated.Settings.Notifications)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Settings, found.Settings)
	})

	t.Run("Consume challenge", func(t *testing.T) {
		user, err := repo.Create(ctx, newUser("consume@x.com", "9111111111"))
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Millisecond)
		expiry := now.Add(10 * time.Minute)
		_, err = repo.Update(ctx, user.ID, models.OTPPurposePasswordReset.Patch(models.Challenge{Code: "246810", ExpiresAt: expiry}))
		require.NoError(t, err)

		hash := "new-hash"
		update := models.UserUpdate{PasswordHash: &hash}

		_, err = repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposePasswordReset, "000000", now, update)
		assert.ErrorIs(t, err, ErrNotFound, "wrong code")
		_, err = repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposeVerification, "246810", now, update)
		assert.ErrorIs(t, err, ErrNotFound, "other purpose")
		_, err = repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposePasswordReset, "246810", expiry, update)
		assert.ErrorIs(t, err, ErrNotFound, "at expiry")

		consumed, err := repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposePasswordReset, "246810", now, update)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", consumed.PasswordHash)
		assert.Empty(t, consumed.PasswordResetOTP)
		assert.Nil(t, consumed.PasswordResetExpiry)

		_, err = repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposePasswordReset, "246810", now, update)
		assert.ErrorIs(t, err, ErrNotFound, "second use")

		_, err = repo.ConsumeChallenge(ctx, primitive.NewObjectID(), models.OTPPurposePasswordReset, "246810", now, update)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Concurrent consumers of one code", func(t *testing.T) {
		user, err := repo.Create(ctx, newUser("consume-race@x.com", "9111111112"))
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Millisecond)
		_, err = repo.Update(ctx, user.ID, models.OTPPurposeVerification.Patch(models.Challenge{Code: "135790", ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, err)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				verified := true
				_, errs[i] = repo.ConsumeChallenge(ctx, user.ID, models.OTPPurposeVerification, "135790", now, models.UserUpdate{IsVerified: &verified})
			}(i)
		}
		wg.Wait()

		consumed := 0
		for _, err := range errs {
			if err == nil {
				consumed++
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		}
		assert.Equal(t, 1, consumed)
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryContract(t, NewMemoryUserRepository())
}

func TestMemoryUserRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("copy@x.com", "9123456780"))
	require.NoError(t, err)
	created.FullName = "Mutated"

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", found.FullName)
}

func TestUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := database.New(ctx, uri, "energynexus_test")
	require.NoError(t, err)
	defer db.Close(context.Background())

	runUserRepositoryContract(t, NewUserRepository(db.Database()))
}

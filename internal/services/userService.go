package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"energynexus/internal/metrics"
	"energynexus/internal/models"
	"energynexus/internal/repositories"
	"energynexus/internal/utils"
)

// UserService defines the profile and settings operations available to a
// signed-in user.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, payload models.ProfileUpdate) (*models.PublicUser, error)
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
	UpdateNotificationSettings(ctx context.Context, userID string, payload models.NotificationSettingsUpdate) (*models.NotificationSettings, error)
	UpdateSecuritySettings(ctx context.Context, userID string, payload models.SecuritySettingsUpdate) (*models.SecuritySettings, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
	GetTotalUsers(ctx context.Context) (int64, error)
	TrackTotalUsers(ctx context.Context, interval time.Duration)
}

type userService struct {
	userRepo          repositories.UserRepository
	passwords         PasswordService
	passwordMinLength int
}

func NewUserService(userRepo repositories.UserRepository, passwords PasswordService, passwordMinLength int) UserService {
	return &userService{userRepo: userRepo, passwords: passwords, passwordMinLength: passwordMinLength}
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

// TrackTotalUsers refreshes the app_total_users gauge until ctx is done.
func (s *userService) TrackTotalUsers(ctx context.Context, interval time.Duration) {
	s.refreshTotalUsers(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshTotalUsers(ctx)
		}
	}
}

func (s *userService) refreshTotalUsers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	count, err := s.GetTotalUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error updating total users gauge")
		return
	}
	metrics.TotalUsers.Set(float64(count))
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, payload models.ProfileUpdate) (*models.PublicUser, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload.FullName = trimmed(payload.FullName)
	payload.Pincode = trimmed(payload.Pincode)
	payload.ProfilePicture = trimmed(payload.ProfilePicture)
	payload.ConsumerID = trimmed(payload.ConsumerID)
	if details := utils.ValidateStruct(payload); len(details) > 0 {
		return nil, validationFailed(details)
	}

	update := models.UserUpdate{
		FullName:       payload.FullName,
		Pincode:        payload.Pincode,
		ProfilePicture: payload.ProfilePicture,
		ConsumerID:     payload.ConsumerID,
		IsProsumer:     payload.IsProsumer,
	}
	if payload.Preferences != nil && *payload.Preferences != (models.PreferencesUpdate{}) {
		prefs := payload.Preferences.Merge(user.Settings.Preferences)
		update.Preferences = &prefs
	}
	if update == (models.UserUpdate{}) {
		return nil, invalidInput("No valid fields provided for update")
	}

	updated, err := s.update(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Msg("User profile updated successfully")
	public := updated.Public()
	return &public, nil
}

func (s *userService) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings := user.Settings
	return &settings, nil
}

// UpdateNotificationSettings merges the supplied toggles over the stored ones.
func (s *userService) UpdateNotificationSettings(ctx context.Context, userID string, payload models.NotificationSettingsUpdate) (*models.NotificationSettings, error) {
	if payload.Empty() {
		return nil, invalidInput("No valid fields provided for update")
	}
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := payload.Merge(user.Settings.Notifications)
	updated, err := s.update(ctx, user.ID, models.UserUpdate{Notifications: &merged})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Msg("Notification settings updated")
	return &updated.Settings.Notifications, nil
}

// UpdateSecuritySettings also mirrors biometricLogin and twoFactorAuth onto
// the account-level biometricEnabled and twoFactorEnabled flags.
func (s *userService) UpdateSecuritySettings(ctx context.Context, userID string, payload models.SecuritySettingsUpdate) (*models.SecuritySettings, error) {
	if payload.Empty() {
		return nil, invalidInput("No valid fields provided for update")
	}
	if details := utils.ValidateStruct(payload); len(details) > 0 {
		return nil, validationFailed(details)
	}
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := payload.Merge(user.Settings.Security)
	updated, err := s.update(ctx, user.ID, models.UserUpdate{
		Security:         &merged,
		BiometricEnabled: &merged.BiometricLogin,
		TwoFactorEnabled: &merged.TwoFactorAuth,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Msg("Security settings updated")
	return &updated.Settings.Security, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return invalidInput("Current password and new password are required")
	}
	if fe := passwordLengthError("newPassword", req.NewPassword, s.passwordMinLength); fe != nil {
		return invalidInput(fe.Message)
	}
	if req.CurrentPassword == req.NewPassword {
		return invalidInput("New password must be different from the current password")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(req.CurrentPassword, user.PasswordHash) {
		log.Warn().Str("user_id", userID).Msg("Password change rejected, current password mismatch")
		return ErrWrongPassword
	}

	hash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to hash new password")
		return ErrInternal
	}
	if _, err := s.update(ctx, user.ID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	metrics.PasswordChangesTotal.Inc()
	log.Info().Str("user_id", userID).Msg("Password changed")
	return nil
}

func (s *userService) update(ctx context.Context, id primitive.ObjectID, update models.UserUpdate) (*models.User, error) {
	updated, err := s.userRepo.Update(ctx, id, update)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	return updated, err
}

// find maps a vanished account to ErrUnauthorized: the caller holds a token
// for an account that no longer resolves.
func (s *userService) find(ctx context.Context, userID string) (*models.User, error) {
	user, err := findUserByID(ctx, s.userRepo, userID)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Str("user_id", userID).Msg("User not found for profile request")
		return nil, ErrUnauthorized
	}
	return user, err
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

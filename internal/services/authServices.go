package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"energynexus/internal/metrics"
	"energynexus/internal/models"
	"energynexus/internal/repositories"
	"energynexus/internal/utils"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordLength = 72

type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResult, error)
	VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (*models.Session, error)
	Login(ctx context.Context, req models.Login) (*models.Session, error)
	ResendOTP(ctx context.Context, req models.ResendOTPRequest) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	Me(ctx context.Context, userID string) (*models.PublicUser, error)
}

type authService struct {
	userRepo          repositories.UserRepository
	passwords         PasswordService
	otps              OTPService
	tokens            TokenService
	notifier          NotificationService
	passwordMinLength int
	now               func() time.Time

	// dummyHash is compared against when no account matches so a login for
	// an unknown identifier costs the same bcrypt work as a real one.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(userRepo repositories.UserRepository, passwords PasswordService, otps OTPService, tokens TokenService, notifier NotificationService, passwordMinLength int) AuthService {
	return &authService{
		userRepo:          userRepo,
		passwords:         passwords,
		otps:              otps,
		tokens:            tokens,
		notifier:          notifier,
		passwordMinLength: passwordMinLength,
		now:               time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResult, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Pincode = strings.TrimSpace(req.Pincode)

	details := utils.ValidateStruct(req)
	if req.Password != "" {
		if fe := passwordLengthError("password", req.Password, s.passwordMinLength); fe != nil {
			details = append(details, *fe)
		}
	}
	if len(details) > 0 {
		log.Warn().Str("email", req.Email).Int("errors", len(details)).Msg("Signup validation failed")
		return nil, validationFailed(details)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during signup")
		return nil, ErrInternal
	}

	user, err := s.userRepo.Create(ctx, &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Pincode:      req.Pincode,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			log.Warn().Str("email", req.Email).Msg("Signup rejected, email or phone already registered")
			return nil, ErrConflict
		}
		return nil, err
	}
	metrics.NewUsersTotal.Inc()

	challenge, err := s.otps.Issue(ctx, user, models.OTPPurposeVerification)
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(user, challenge.Code, models.OTPPurposeVerification, ChannelSMS, ChannelEmail)

	log.Info().Str("user_id", user.ID.Hex()).Msg("User registered, verification OTP sent")
	return &models.SignupResult{
		UserID: user.ID.Hex(),
		Phone:  utils.MaskPhone(user.Phone),
		Email:  utils.MaskEmail(user.Email),
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (*models.Session, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.OTP) == "" {
		return nil, invalidInput("User ID and OTP are required")
	}

	user, err := s.findByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	verified := true
	user, err = s.otps.Verify(ctx, user, models.OTPPurposeVerification, strings.TrimSpace(req.OTP), models.UserUpdate{IsVerified: &verified})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.Hex()).Msg("Account verified")
	return s.session(user)
}

func (s *authService) Login(ctx context.Context, req models.Login) (*models.Session, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, invalidInput("Please provide email/phone and password")
	}

	user, err := s.userRepo.FindByEmailOrPhone(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.verifyAgainstDummy(req.Password)
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Msg("Invalid credentials during login attempt")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwords.Verify(req.Password, user.PasswordHash) {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Invalid credentials (password mismatch) during login attempt")
		return nil, ErrInvalidCredentials
	}

	update := models.UserUpdate{}
	if !user.IsVerified {
		if !user.PreVerified {
			metrics.LoginAttemptsTotal.WithLabelValues("unverified").Inc()
			return nil, &VerificationRequiredError{UserID: user.ID.Hex()}
		}
		verified := true
		update.IsVerified = &verified
		log.Info().Str("user_id", user.ID.Hex()).Msg("Auto-verifying pre-verified account on login")
	}

	lastLogin := s.now().UTC()
	if user.LastLogin != nil && user.LastLogin.After(lastLogin) {
		lastLogin = *user.LastLogin
	}
	update.LastLogin = &lastLogin

	user, err = s.userRepo.Update(ctx, user.ID, update)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")
	return s.session(user)
}

func (s *authService) ResendOTP(ctx context.Context, req models.ResendOTPRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return invalidInput("User ID is required")
	}

	user, err := s.findByID(ctx, req.UserID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if err := s.otps.Throttle(ctx, user, models.OTPPurposeVerification); err != nil {
		return err
	}

	challenge, err := s.otps.Issue(ctx, user, models.OTPPurposeVerification)
	if err != nil {
		return err
	}
	s.notifier.Dispatch(user, challenge.Code, models.OTPPurposeVerification, ChannelSMS, ChannelEmail)
	return nil
}

// ForgotPassword never reveals whether the identifier matched an account:
// every path past input validation returns nil.
func (s *authService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return invalidInput("Please provide email or phone number")
	}

	user, err := s.userRepo.FindByEmailOrPhone(ctx, identifier)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to look up account for password reset")
		}
		return nil
	}
	if err := s.otps.Throttle(ctx, user, models.OTPPurposePasswordReset); err != nil {
		return nil
	}

	challenge, err := s.otps.Issue(ctx, user, models.OTPPurposePasswordReset)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to issue password reset OTP")
		return nil
	}

	channel := ChannelSMS
	if strings.Contains(identifier, "@") {
		channel = ChannelEmail
	}
	s.notifier.Dispatch(user, challenge.Code, models.OTPPurposePasswordReset, channel)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	userID := strings.TrimSpace(req.UserID)
	identifier := strings.TrimSpace(req.Identifier)
	code := strings.TrimSpace(req.OTP)
	if (userID == "" && identifier == "") || code == "" || req.NewPassword == "" {
		return invalidInput("User ID, OTP, and new password are required")
	}
	if fe := passwordLengthError("newPassword", req.NewPassword, s.passwordMinLength); fe != nil {
		return invalidInput(fe.Message)
	}

	hash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash new password")
		return ErrInternal
	}

	var user *models.User
	if userID != "" {
		user, err = s.findByID(ctx, userID)
	} else {
		user, err = s.userRepo.FindByEmailOrPhone(ctx, identifier)
		if errors.Is(err, repositories.ErrNotFound) {
			err = ErrInvalidOrExpired
		}
	}
	if err != nil {
		return err
	}

	if _, err := s.otps.Verify(ctx, user, models.OTPPurposePasswordReset, code, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("Password reset successfully")
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *authService) findByID(ctx context.Context, userID string) (*models.User, error) {
	return findUserByID(ctx, s.userRepo, userID)
}

// findUserByID treats malformed ids like unknown ones.
func findUserByID(ctx context.Context, userRepo repositories.UserRepository, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) verifyAgainstDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash("energynexus-no-such-account")
		if err != nil {
			log.Error().Err(err).Msg("Failed to prepare placeholder password hash")
			return
		}
		s.dummyHash = hash
	})
	s.passwords.Verify(password, s.dummyHash)
}

func (s *authService) session(user *models.User) (*models.Session, error) {
	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token for user")
		return nil, ErrInternal
	}
	return &models.Session{Token: token, User: user.Public()}, nil
}

func passwordLengthError(field, password string, minLen int) *utils.FieldError {
	switch {
	case len(password) < minLen:
		return &utils.FieldError{Field: field, Message: "Password must be at least " + strconv.Itoa(minLen) + " characters long"}
	case len(password) > maxPasswordLength:
		return &utils.FieldError{Field: field, Message: "Password cannot exceed " + strconv.Itoa(maxPasswordLength) + " characters"}
	}
	return nil
}

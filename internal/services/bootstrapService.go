package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"energynexus/internal/config"
	"energynexus/internal/metrics"
	"energynexus/internal/models"
	"energynexus/internal/repositories"
	"energynexus/internal/utils"
)

// BootstrapService provisions operator accounts at startup. Running it any
// number of times leaves exactly one account per seed and never modifies an
// account that already exists.
type BootstrapService interface {
	EnsureSeeded(ctx context.Context, seeds []config.SeedAccount) (int, error)
}

type bootstrapService struct {
	userRepo          repositories.UserRepository
	passwords         PasswordService
	passwordMinLength int
}

func NewBootstrapService(userRepo repositories.UserRepository, passwords PasswordService, passwordMinLength int) BootstrapService {
	return &bootstrapService{userRepo: userRepo, passwords: passwords, passwordMinLength: passwordMinLength}
}

func (s *bootstrapService) EnsureSeeded(ctx context.Context, seeds []config.SeedAccount) (int, error) {
	created := 0
	for _, seed := range seeds {
		ok, err := s.ensure(ctx, seed)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *bootstrapService) ensure(ctx context.Context, seed config.SeedAccount) (bool, error) {
	req := models.SignupRequest{
		FullName: strings.TrimSpace(seed.FullName),
		Email:    strings.ToLower(strings.TrimSpace(seed.Email)),
		Phone:    strings.TrimSpace(seed.Phone),
		Password: seed.Password,
		Pincode:  strings.TrimSpace(seed.Pincode),
	}
	details := utils.ValidateStruct(req)
	if fe := passwordLengthError("password", req.Password, s.passwordMinLength); fe != nil {
		details = append(details, *fe)
	}
	if len(details) > 0 {
		log.Error().Str("email", req.Email).Interface("errors", details).Msg("Skipping invalid seed account")
		return false, nil
	}

	for _, identifier := range []string{req.Email, req.Phone} {
		_, err := s.userRepo.FindByEmailOrPhone(ctx, identifier)
		if err == nil {
			log.Debug().Str("email", req.Email).Msg("Seed account already present")
			return false, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return false, err
		}
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return false, err
	}
	user, err := s.userRepo.Create(ctx, &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Pincode:      req.Pincode,
		IsVerified:   true,
		PreVerified:  true,
		IsProsumer:   true,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	metrics.SeededUsersTotal.Inc()
	log.Info().Str("user_id", user.ID.Hex()).Str("email", user.Email).Msg("Seed account created")
	return true, nil
}

package services

import (
	"golang.org/x/crypto/bcrypt"
)

const maxBcryptCost = 14

// PasswordService hashes and checks account passwords.
type PasswordService interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type passwordService struct {
	cost int
}

// NewPasswordService clamps cost to [bcrypt.MinCost, 14] so login latency
// stays bounded.
func NewPasswordService(cost int) PasswordService {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > maxBcryptCost {
		cost = maxBcryptCost
	}
	return &passwordService{cost: cost}
}

func (s *passwordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *passwordService) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

package repositories

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"energynexus/internal/models"
	"energynexus/internal/utils"
)

// memoryUserRepository keeps accounts in process memory. It backs
// STORE_DRIVER=memory and the service tests.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]*models.User
	byEmail map[string]primitive.ObjectID
	byPhone map[string]primitive.ObjectID
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[primitive.ObjectID]*models.User),
		byEmail: make(map[string]primitive.ObjectID),
		byPhone: make(map[string]primitive.ObjectID),
	}
}

func (r *memoryUserRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	email := normalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return nil, ErrDuplicate
	}
	if _, ok := r.byPhone[user.Phone]; ok {
		return nil, ErrDuplicate
	}

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	user.ApplyDefaults()

	r.byID[user.ID] = user.Clone()
	r.byEmail[email] = user.ID
	r.byPhone[user.Phone] = user.ID
	return user, nil
}

func (r *memoryUserRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error) {
	field, value := identifierQuery(identifier)

	r.mu.RLock()
	defer r.mu.RUnlock()

	index := r.byPhone
	if field == "email" {
		index = r.byEmail
	}
	id, ok := index[value]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

func (r *memoryUserRepository) Update(ctx context.Context, userID primitive.ObjectID, update models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(user)
	user.UpdatedAt = time.Now().UTC()
	return user.Clone(), nil
}

func (r *memoryUserRepository) ConsumeChallenge(ctx context.Context, userID primitive.ObjectID, purpose models.OTPPurpose, code string, now time.Time, update models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	stored, expiry := user.Challenge(purpose)
	if !utils.OTPEqual(code, stored) || expiry == nil || !now.Before(*expiry) {
		return nil, ErrNotFound
	}
	withChallengeCleared(update, purpose).Apply(user)
	user.UpdatedAt = time.Now().UTC()
	return user.Clone(), nil
}

func (r *memoryUserRepository) CountAll(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

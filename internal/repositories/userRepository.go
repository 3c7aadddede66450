package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"energynexus/internal/models"
	"energynexus/internal/utils"
)

const usersCollection = "users"

// UserRepository is the account store. Create is atomic with respect to the
// email and phone uniqueness constraints.
type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, userID primitive.ObjectID, update models.UserUpdate) (*models.User, error)
	// ConsumeChallenge applies update, together with clearing the purpose's
	// challenge, only if code is the live code and now is before its expiry.
	// The check and the write are one atomic step, so a code is accepted at
	// most once. A mismatch, an expired code and a missing account all
	// return ErrNotFound.
	ConsumeChallenge(ctx context.Context, userID primitive.ObjectID, purpose models.OTPPurpose, code string, now time.Time, update models.UserUpdate) (*models.User, error)
	CountAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection(usersCollection)}
}

func (r *userRepository) EnsureIndexes(ctx context.Context) (err error) {
	defer utils.ObserveQuery("ensureIndexes", "user", time.Now(), &err)

	_, err = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_phone")},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user indexes")
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (_ *models.User, err error) {
	defer utils.ObserveQuery("create", "user", time.Now(), &err)

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	user.ApplyDefaults()

	if _, err = r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (_ *models.User, err error) {
	defer utils.ObserveQuery("findByEmailOrPhone", "user", time.Now(), &err)

	field, value := identifierQuery(identifier)
	var user models.User
	err = r.collection.FindOne(ctx, bson.M{field: value}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", field, err)
	}
	user.ApplyDefaults()
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (_ *models.User, err error) {
	defer utils.ObserveQuery("findById", "user", time.Now(), &err)

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.ApplyDefaults()
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, userID primitive.ObjectID, update models.UserUpdate) (_ *models.User, err error) {
	defer utils.ObserveQuery("update", "user", time.Now(), &err)

	doc := updateDocument(update, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, doc, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error updating user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.ApplyDefaults()
	return &user, nil
}

func (r *userRepository) ConsumeChallenge(ctx context.Context, userID primitive.ObjectID, purpose models.OTPPurpose, code string, now time.Time, update models.UserUpdate) (_ *models.User, err error) {
	defer utils.ObserveQuery("consumeChallenge", "user", time.Now(), &err)

	if code == "" {
		return nil, ErrNotFound
	}
	codeField, expiryField := challengeFields(purpose)
	filter := bson.M{
		"_id":       userID,
		codeField:   code,
		expiryField: bson.M{"$gt": now},
	}
	doc := updateDocument(withChallengeCleared(update, purpose), time.Now().UTC())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err = r.collection.FindOneAndUpdate(ctx, filter, doc, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error consuming OTP challenge")
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	user.ApplyDefaults()
	return &user, nil
}

func (r *userRepository) CountAll(ctx context.Context) (_ int64, err error) {
	defer utils.ObserveQuery("countAll", "user", time.Now(), &err)

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to count total users")
		return 0, fmt.Errorf("failed to count total users: %w", err)
	}
	return count, nil
}

// updateDocument translates a partial update into $set/$unset operators.
func updateDocument(up models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if up.FullName != nil {
		set["fullName"] = *up.FullName
	}
	if up.PasswordHash != nil {
		set["passwordHash"] = *up.PasswordHash
	}
	if up.Pincode != nil {
		set["pincode"] = *up.Pincode
	}
	if up.ProfilePicture != nil {
		set["profilePicture"] = *up.ProfilePicture
	}
	if up.ConsumerID != nil {
		if *up.ConsumerID == "" {
			unset["consumerId"] = ""
		} else {
			set["consumerId"] = *up.ConsumerID
		}
	}
	if up.IsProsumer != nil {
		set["isProsumer"] = *up.IsProsumer
	}
	if up.IsVerified != nil {
		set["isVerified"] = *up.IsVerified
	}
	if up.LastLogin != nil {
		set["lastLogin"] = *up.LastLogin
	}
	if up.Notifications != nil {
		set["settings.notifications"] = *up.Notifications
	}
	if up.Security != nil {
		set["settings.security"] = *up.Security
	}
	if up.Preferences != nil {
		set["settings.preferences"] = *up.Preferences
	}
	if up.BiometricEnabled != nil {
		set["biometricEnabled"] = *up.BiometricEnabled
	}
	if up.TwoFactorEnabled != nil {
		set["twoFactorEnabled"] = *up.TwoFactorEnabled
	}

	switch {
	case up.OTP != nil:
		set["otp"] = up.OTP.Code
		set["otpExpiry"] = up.OTP.ExpiresAt
	case up.ClearOTP:
		unset["otp"] = ""
		unset["otpExpiry"] = ""
	}
	switch {
	case up.PasswordReset != nil:
		set["passwordResetOTP"] = up.PasswordReset.Code
		set["passwordResetExpiry"] = up.PasswordReset.ExpiresAt
	case up.ClearPasswordReset:
		unset["passwordResetOTP"] = ""
		unset["passwordResetExpiry"] = ""
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

func challengeFields(purpose models.OTPPurpose) (code, expiry string) {
	if purpose == models.OTPPurposePasswordReset {
		return "passwordResetOTP", "passwordResetExpiry"
	}
	return "otp", "otpExpiry"
}

// withChallengeCleared adds the clear flag for purpose to update.
func withChallengeCleared(update models.UserUpdate, purpose models.OTPPurpose) models.UserUpdate {
	reset := purpose.ClearPatch()
	update.ClearOTP = update.ClearOTP || reset.ClearOTP
	update.ClearPasswordReset = update.ClearPasswordReset || reset.ClearPasswordReset
	return update
}

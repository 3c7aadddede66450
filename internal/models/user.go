package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FullName            string             `json:"fullName" bson:"fullName"`
	Email               string             `json:"email" bson:"email"`
	Phone               string             `json:"phone" bson:"phone"`
	PasswordHash        string             `json:"-" bson:"passwordHash"`
	Pincode             string             `json:"pincode" bson:"pincode"`
	ProfilePicture      string             `json:"profilePicture" bson:"profilePicture"`
	ConsumerID          string             `json:"consumerId,omitempty" bson:"consumerId,omitempty"`
	IsProsumer          bool               `json:"isProsumer" bson:"isProsumer"`
	IsVerified          bool               `json:"isVerified" bson:"isVerified"`
	PreVerified         bool               `json:"-" bson:"preVerified"`
	OTP                 string             `json:"-" bson:"otp,omitempty"`
	OTPExpiry           *time.Time         `json:"-" bson:"otpExpiry,omitempty"`
	PasswordResetOTP    string             `json:"-" bson:"passwordResetOTP,omitempty"`
	PasswordResetExpiry *time.Time         `json:"-" bson:"passwordResetExpiry,omitempty"`
	BiometricEnabled    bool               `json:"biometricEnabled" bson:"biometricEnabled"`
	TwoFactorEnabled    bool               `json:"twoFactorEnabled" bson:"twoFactorEnabled"`
	WalletBalance       float64            `json:"walletBalance" bson:"walletBalance"`
	TotalEarnings       float64            `json:"totalEarnings" bson:"totalEarnings"`
	TotalEnergySold     float64            `json:"totalEnergySold" bson:"totalEnergySold"`
	CarbonOffsetTotal   float64            `json:"carbonOffsetTotal" bson:"carbonOffsetTotal"`
	Settings            Settings           `json:"settings" bson:"settings"`
	LastLogin           *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Challenge returns the stored code and expiry for purpose.
func (u *User) Challenge(purpose OTPPurpose) (string, *time.Time) {
	if purpose == OTPPurposePasswordReset {
		return u.PasswordResetOTP, u.PasswordResetExpiry
	}
	return u.OTP, u.OTPExpiry
}

// ApplyDefaults fills a zero settings document, as found on accounts created
// before settings existed.
func (u *User) ApplyDefaults() {
	if u.Settings == (Settings{}) {
		u.Settings = DefaultSettings()
	}
}

// Public strips credential and challenge material.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID.Hex(),
		FullName:          u.FullName,
		Email:             u.Email,
		Phone:             u.Phone,
		Pincode:           u.Pincode,
		IsProsumer:        u.IsProsumer,
		IsVerified:        u.IsVerified,
		ProfilePicture:    u.ProfilePicture,
		ConsumerID:        u.ConsumerID,
		BiometricEnabled:  u.BiometricEnabled,
		TwoFactorEnabled:  u.TwoFactorEnabled,
		WalletBalance:     u.WalletBalance,
		TotalEarnings:     u.TotalEarnings,
		TotalEnergySold:   u.TotalEnergySold,
		CarbonOffsetTotal: u.CarbonOffsetTotal,
		Settings:          u.Settings,
		LastLogin:         u.LastLogin,
		CreatedAt:         u.CreatedAt,
	}
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (u *User) Clone() *User {
	c := *u
	c.OTPExpiry = cloneTime(u.OTPExpiry)
	c.PasswordResetExpiry = cloneTime(u.PasswordResetExpiry)
	c.LastLogin = cloneTime(u.LastLogin)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type PublicUser struct {
	ID                string     `json:"id"`
	FullName          string     `json:"fullName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	Pincode           string     `json:"pincode"`
	IsProsumer        bool       `json:"isProsumer"`
	IsVerified        bool       `json:"isVerified"`
	ProfilePicture    string     `json:"profilePicture"`
	ConsumerID        string     `json:"consumerId,omitempty"`
	BiometricEnabled  bool       `json:"biometricEnabled"`
	TwoFactorEnabled  bool       `json:"twoFactorEnabled"`
	WalletBalance     float64    `json:"walletBalance"`
	TotalEarnings     float64    `json:"totalEarnings"`
	TotalEnergySold   float64    `json:"totalEnergySold"`
	CarbonOffsetTotal float64    `json:"carbonOffsetTotal"`
	Settings          Settings   `json:"settings"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// UserUpdate is a partial update. Nil pointers are left untouched; the Clear
// flags remove a challenge entirely.
type UserUpdate struct {
	FullName       *string
	PasswordHash   *string
	Pincode        *string
	ProfilePicture *string
	ConsumerID     *string
	IsProsumer     *bool
	IsVerified     *bool
	LastLogin      *time.Time

	Notifications    *NotificationSettings
	Security         *SecuritySettings
	Preferences      *Preferences
	BiometricEnabled *bool
	TwoFactorEnabled *bool

	OTP                *Challenge
	ClearOTP           bool
	PasswordReset      *Challenge
	ClearPasswordReset bool
}

type Challenge struct {
	Code      string
	ExpiresAt time.Time
}

// Apply merges the update into u. Stores use it so both backends agree on
// merge semantics.
func (up UserUpdate) Apply(u *User) {
	if up.FullName != nil {
		u.FullName = *up.FullName
	}
	if up.PasswordHash != nil {
		u.PasswordHash = *up.PasswordHash
	}
	if up.Pincode != nil {
		u.Pincode = *up.Pincode
	}
	if up.ProfilePicture != nil {
		u.ProfilePicture = *up.ProfilePicture
	}
	if up.ConsumerID != nil {
		u.ConsumerID = *up.ConsumerID
	}
	if up.IsProsumer != nil {
		u.IsProsumer = *up.IsProsumer
	}
	if up.IsVerified != nil {
		u.IsVerified = *up.IsVerified
	}
	if up.LastLogin != nil {
		u.LastLogin = cloneTime(up.LastLogin)
	}
	if up.Notifications != nil {
		u.Settings.Notifications = *up.Notifications
	}
	if up.Security != nil {
		u.Settings.Security = *up.Security
	}
	if up.Preferences != nil {
		u.Settings.Preferences = *up.Preferences
	}
	if up.BiometricEnabled != nil {
		u.BiometricEnabled = *up.BiometricEnabled
	}
	if up.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *up.TwoFactorEnabled
	}
	if up.ClearOTP {
		u.OTP, u.OTPExpiry = "", nil
	}
	if up.OTP != nil {
		u.OTP = up.OTP.Code
		u.OTPExpiry = cloneTime(&up.OTP.ExpiresAt)
	}
	if up.ClearPasswordReset {
		u.PasswordResetOTP, u.PasswordResetExpiry = "", nil
	}
	if up.PasswordReset != nil {
		u.PasswordResetOTP = up.PasswordReset.Code
		u.PasswordResetExpiry = cloneTime(&up.PasswordReset.ExpiresAt)
	}
}

// ProfileUpdate is the body accepted by PUT /api/users/me and
// PUT /api/settings/profile.
type ProfileUpdate struct {
	FullName       *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Pincode        *string `json:"pincode,omitempty" validate:"omitempty,pincode"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,max=2048"`
	ConsumerID     *string `json:"consumerId,omitempty" validate:"omitempty,max=32"`
	IsProsumer     *bool   `json:"isProsumer,omitempty"`

	Preferences *PreferencesUpdate `json:"preferences,omitempty"`
}

package models

// Settings is the per-account preferences document stored on the user.
type Settings struct {
	Notifications NotificationSettings `json:"notifications" bson:"notifications"`
	Security      SecuritySettings     `json:"security" bson:"security"`
	Preferences   Preferences          `json:"preferences" bson:"preferences"`
}

type NotificationSettings struct {
	SaleConfirmations   bool `json:"saleConfirmations" bson:"saleConfirmations"`
	PriceAlerts         bool `json:"priceAlerts" bson:"priceAlerts"`
	WalletUpdates       bool `json:"walletUpdates" bson:"walletUpdates"`
	PromotionalMessages bool `json:"promotionalMessages" bson:"promotionalMessages"`
	EnergyInsights      bool `json:"energyInsights" bson:"energyInsights"`
	MaintenanceUpdates  bool `json:"maintenanceUpdates" bson:"maintenanceUpdates"`
}

type SecuritySettings struct {
	BiometricLogin bool `json:"biometricLogin" bson:"biometricLogin"`
	TwoFactorAuth  bool `json:"twoFactorAuth" bson:"twoFactorAuth"`
	LoginAlerts    bool `json:"loginAlerts" bson:"loginAlerts"`
	// SessionTimeout is in minutes.
	SessionTimeout int  `json:"sessionTimeout" bson:"sessionTimeout"`
}

type Preferences struct {
	Language   string `json:"language" bson:"language"`
	Currency   string `json:"currency" bson:"currency"`
	TimeZone   string `json:"timeZone" bson:"timeZone"`
	DateFormat string `json:"dateFormat" bson:"dateFormat"`
	Theme      string `json:"theme" bson:"theme"`
}

func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{
			SaleConfirmations:  true,
			PriceAlerts:        true,
			WalletUpdates:      true,
			EnergyInsights:     true,
			MaintenanceUpdates: true,
		},
		Security: SecuritySettings{
			LoginAlerts:    true,
			SessionTimeout: 30,
		},
		Preferences: Preferences{
			Language:   "en",
			Currency:   "INR",
			TimeZone:   "Asia/Kolkata",
			DateFormat: "DD/MM/YYYY",
			Theme:      "auto",
		},
	}
}

// NotificationSettingsUpdate is the body of PUT /api/settings/notifications.
// Omitted toggles keep their stored value.
type NotificationSettingsUpdate struct {
	SaleConfirmations   *bool `json:"saleConfirmations,omitempty"`
	PriceAlerts         *bool `json:"priceAlerts,omitempty"`
	WalletUpdates       *bool `json:"walletUpdates,omitempty"`
	PromotionalMessages *bool `json:"promotionalMessages,omitempty"`
	EnergyInsights      *bool `json:"energyInsights,omitempty"`
	MaintenanceUpdates  *bool `json:"maintenanceUpdates,omitempty"`
}

func (p NotificationSettingsUpdate) Empty() bool {
	return p == NotificationSettingsUpdate{}
}

func (p NotificationSettingsUpdate) Merge(n NotificationSettings) NotificationSettings {
	setBool(&n.SaleConfirmations, p.SaleConfirmations)
	setBool(&n.PriceAlerts, p.PriceAlerts)
	setBool(&n.WalletUpdates, p.WalletUpdates)
	setBool(&n.PromotionalMessages, p.PromotionalMessages)
	setBool(&n.EnergyInsights, p.EnergyInsights)
	setBool(&n.MaintenanceUpdates, p.MaintenanceUpdates)
	return n
}

// SecuritySettingsUpdate is the body of PUT /api/settings/security.
type SecuritySettingsUpdate struct {
	BiometricLogin *bool `json:"biometricLogin,omitempty"`
	TwoFactorAuth  *bool `json:"twoFactorAuth,omitempty"`
	LoginAlerts    *bool `json:"loginAlerts,omitempty"`
	SessionTimeout *int  `json:"sessionTimeout,omitempty" validate:"omitempty,min=5,max=1440"`
}

func (p SecuritySettingsUpdate) Empty() bool {
	return p == SecuritySettingsUpdate{}
}

func (p SecuritySettingsUpdate) Merge(s SecuritySettings) SecuritySettings {
	setBool(&s.BiometricLogin, p.BiometricLogin)
	setBool(&s.TwoFactorAuth, p.TwoFactorAuth)
	setBool(&s.LoginAlerts, p.LoginAlerts)
	if p.SessionTimeout != nil {
		s.SessionTimeout = *p.SessionTimeout
	}
	return s
}

// PreferencesUpdate travels inside ProfileUpdate.
type PreferencesUpdate struct {
	Language   *string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
	Currency   *string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	TimeZone   *string `json:"timeZone,omitempty" validate:"omitempty,timezone"`
	DateFormat *string `json:"dateFormat,omitempty" validate:"omitempty,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	Theme      *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
}

func (p PreferencesUpdate) Merge(pref Preferences) Preferences {
	setString(&pref.Language, p.Language)
	setString(&pref.Currency, p.Currency)
	setString(&pref.TimeZone, p.TimeZone)
	setString(&pref.DateFormat, p.DateFormat)
	setString(&pref.Theme, p.Theme)
	return pref
}

// ChangePasswordRequest is the body of PUT /api/settings/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

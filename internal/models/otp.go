package models

type OTPPurpose string

const (
	OTPPurposeVerification  OTPPurpose = "verification"
	OTPPurposePasswordReset OTPPurpose = "reset_password"
)

// Patch returns the update that stores challenge under purpose, replacing
// whatever code was live before.
func (p OTPPurpose) Patch(challenge Challenge) UserUpdate {
	if p == OTPPurposePasswordReset {
		return UserUpdate{PasswordReset: &challenge}
	}
	return UserUpdate{OTP: &challenge}
}

// ClearPatch returns the update that removes the challenge for purpose.
func (p OTPPurpose) ClearPatch() UserUpdate {
	if p == OTPPurposePasswordReset {
		return UserUpdate{ClearPasswordReset: true}
	}
	return UserUpdate{ClearOTP: true}
}

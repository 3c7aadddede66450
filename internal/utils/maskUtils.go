package utils

import "strings"

// MaskPhone hides the last four digits: 9876543210 -> 987654****.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:len(phone)-4] + "****"
}

// MaskEmail keeps the first two characters of the local part:
// asha@x.com -> as***@x.com.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local + "***" + domain
	}
	return local[:2] + "***" + domain
}

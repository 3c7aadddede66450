package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"energynexus/internal/services"
	"energynexus/internal/utils"
)

var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrConflict, http.StatusConflict, "User already exists with this email or phone number"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{services.ErrNotFound, http.StatusNotFound, "User not found"},
	{services.ErrInvalidOrExpired, http.StatusBadRequest, "Invalid or expired OTP"},
	{services.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "Not authorized, token failed"},
	{services.ErrTooManyRequests, http.StatusTooManyRequests, "Too many OTP requests. Please try again later."},
	{services.ErrWrongPassword, http.StatusBadRequest, "Current password is incorrect"},
}

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body := map[string]interface{}{"success": false, "error": verr.Error()}
		if len(verr.Details) > 0 {
			body["details"] = verr.Details
		}
		utils.RespondWithJSON(w, http.StatusBadRequest, body)
		return
	}

	var unverified *services.VerificationRequiredError
	if errors.As(err, &unverified) {
		utils.RespondWithJSON(w, http.StatusForbidden, map[string]interface{}{
			"success":              false,
			"error":                "Account not verified. Please verify your account.",
			"requiresVerification": true,
			"userId":               unverified.UserID,
		})
		return
	}

	for _, resp := range errorResponses {
		if errors.Is(err, resp.err) {
			utils.SendJSONError(w, resp.message, resp.status)
			return
		}
	}

	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Unhandled error")
	utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
}

func decodeOrReject(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSONBody(w, r, dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"energynexus/internal/middlewares"
	"energynexus/internal/models"
	"energynexus/internal/utils"
)

func (u *UserHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrReject(w, r, "GetNotificationSettings")
	if !ok {
		return
	}

	settings, err := u.userService.GetSettings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "", settings.Notifications)
}

func (u *UserHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrReject(w, r, "UpdateNotificationSettings")
	if !ok {
		return
	}

	var payload models.NotificationSettingsUpdate
	if !decodeOrReject(w, r, &payload) {
		return
	}

	notifications, err := u.userService.UpdateNotificationSettings(r.Context(), userID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Notification settings updated successfully", notifications)
}

func (u *UserHandler) GetSecuritySettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrReject(w, r, "GetSecuritySettings")
	if !ok {
		return
	}

	settings, err := u.userService.GetSettings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "", settings.Security)
}

func (u *UserHandler) UpdateSecuritySettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrReject(w, r, "UpdateSecuritySettings")
	if !ok {
		return
	}

	var payload models.SecuritySettingsUpdate
	if !decodeOrReject(w, r, &payload) {
		return
	}

	security, err := u.userService.UpdateSecuritySettings(r.Context(), userID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Security settings updated successfully", security)
}

func (u *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrReject(w, r, "ChangePassword")
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	if err := u.userService.ChangePassword(r.Context(), userID, req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

func userIDOrReject(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Str("handler", op).Msg("User ID not found in context")
		utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
	}
	return userID, ok
}

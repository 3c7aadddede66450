package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"energynexus/internal/middlewares"
	"energynexus/internal/models"
	"energynexus/internal/services"
	"energynexus/internal/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Msg("User ID not found in context for GetMyProfile")
		utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
		return
	}

	user, err := u.userService.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "", map[string]interface{}{"user": user})
}

func (u *UserHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Msg("User ID not found in context for UpdateMyProfile")
		utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
		return
	}

	var payload models.ProfileUpdate
	if !decodeOrReject(w, r, &payload) {
		return
	}

	user, err := u.userService.UpdateProfile(r.Context(), userID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": user})
}

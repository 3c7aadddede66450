package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"energynexus/internal/middlewares"
	"energynexus/internal/models"
	"energynexus/internal/services"
	"energynexus/internal/utils"
)

const forgotPasswordMessage = "If an account exists with this email or phone, a password reset OTP has been sent"

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (a *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	res, err := a.authService.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusCreated, "User registered successfully. Please verify the OTP sent to your phone and email.", res)
}

func (a *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	session, err := a.authService.VerifyOTP(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Account verified successfully", session)
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Login
	if !decodeOrReject(w, r, &req) {
		return
	}

	session, err := a.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Login successful", session)
}

func (a *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.ResendOTPRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	if err := a.authService.ResendOTP(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "OTP sent successfully", nil)
}

func (a *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	if err := a.authService.ForgotPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, forgotPasswordMessage, nil)
}

func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	if err := a.authService.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "Password reset successfully. Please log in with your new password.", nil)
}

func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Msg("User ID not found in context for Me")
		utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
		return
	}

	user, err := a.authService.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.SendJSONSuccess(w, http.StatusOK, "", map[string]interface{}{"user": user})
}

// Logout always succeeds: sessions are stateless and the client discards
// its token.
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.SendJSONSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

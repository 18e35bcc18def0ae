package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fee-backend/internal/middleware"
	"fee-backend/internal/models"
	"fee-backend/internal/services"
	"fee-backend/pkg/utils"
)

type TOTPHandler struct {
	TOTP  *services.TOTPService
	Users *services.UserService
}

func NewTOTPHandler(totp *services.TOTPService, users *services.UserService) *TOTPHandler {
	return &TOTPHandler{TOTP: totp, Users: users}
}

func totpErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNoTOTPSecret),
		errors.Is(err, services.ErrTOTPNotEnabled):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Setup provisions a new TOTP secret and QR code for the logged-in user
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "User not found")
		return
	}

	setup, err := h.TOTP.GenerateSetup(r.Context(), user)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, setup)
}

// VerifyEnable confirms the first code and turns 2FA on
func (h *TOTPHandler) VerifyEnable(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.TOTP.VerifyAndEnable(r.Context(), userID, req.Code, r.RemoteAddr); err != nil {
		utils.Error(w, totpErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication enabled"})
}

// Disable turns 2FA off after re-verifying password and a current code
func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.TOTP.Disable(r.Context(), userID, req.Password, req.Code); err != nil {
		utils.Error(w, totpErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication disabled"})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fee-backend/internal/auth"
	"fee-backend/internal/middleware"
	"fee-backend/internal/models"
	"fee-backend/internal/services"
	"fee-backend/pkg/utils"
)

type AuthHandler struct {
	Users      *services.UserService
	TOTP       *services.TOTPService
	JWTManager *auth.JWTManager
}

func NewAuthHandler(users *services.UserService, totp *services.TOTPService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{Users: users, TOTP: totp, JWTManager: jwtManager}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.Signup(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Users.Login(r.Context(), &req)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, services.ErrInvalidCredentials) && !errors.Is(err, services.ErrAccountDisabled) {
			status = http.StatusBadRequest
		}
		utils.Error(w, status, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// TOTPLogin completes a 2FA login: temp token from step one plus a code
func (h *AuthHandler) TOTPLogin(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims, err := h.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid or expired temp token")
		return
	}

	if err := h.TOTP.Verify(r.Context(), claims.UserID, req.Code, r.RemoteAddr); err != nil {
		utils.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	resp, err := h.Users.IssueToken(user)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "User not found")
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

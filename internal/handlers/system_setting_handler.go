package handlers

import (
	"encoding/json"
	"net/http"

	"fee-backend/internal/cache"
	"fee-backend/internal/repositories"
	"fee-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// SystemSettingHandler exposes institute-level settings. Settings are plain
// key/value rows; the handler works on the repository directly.
type SystemSettingHandler struct {
	Repo *repositories.SystemSettingRepository
}

func NewSystemSettingHandler(repo *repositories.SystemSettingRepository) *SystemSettingHandler {
	return &SystemSettingHandler{Repo: repo}
}

func (h *SystemSettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Repo.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, settings)
}

func (h *SystemSettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	setting, err := h.Repo.Get(r.Context(), key)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Setting not found")
		return
	}
	utils.JSON(w, http.StatusOK, setting)
}

func (h *SystemSettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Repo.Update(r.Context(), key, req.Value); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	cache.InvalidateSettingCaches(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Setting updated"})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fee-backend/internal/middleware"
	"fee-backend/internal/models"
	"fee-backend/internal/services"
	"fee-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type FeeStructureHandler struct {
	Service *services.FeeStructureService
}

func NewFeeStructureHandler(s *services.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{Service: s}
}

// Create makes a new structure and promotes it to current
func (h *FeeStructureHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeeStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	structure, err := h.Service.Create(r.Context(), &req, userID)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, structure)
}

func (h *FeeStructureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	structure, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Fee structure not found")
		return
	}
	utils.JSON(w, http.StatusOK, structure)
}

func (h *FeeStructureHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	structure, err := h.Service.GetCurrent(r.Context())
	if err != nil {
		utils.Error(w, http.StatusNotFound, "No current fee structure")
		return
	}
	utils.JSON(w, http.StatusOK, structure)
}

func (h *FeeStructureHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	structures, err := h.Service.List(r.Context(), includeArchived)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, structures)
}

func (h *FeeStructureHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Service.Archive(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Fee structure archived"})
}

// PreviewReplace shows what creating a new current structure would demote
func (h *FeeStructureHandler) PreviewReplace(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Service.PreviewReplace(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, preview)
}

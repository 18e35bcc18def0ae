package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fee-backend/internal/middleware"
	"fee-backend/internal/models"
	"fee-backend/internal/services"
	"fee-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type FeeRecordHandler struct {
	Service *services.FeeRecordService
}

func NewFeeRecordHandler(s *services.FeeRecordService) *FeeRecordHandler {
	return &FeeRecordHandler{Service: s}
}

// recordErrorStatus maps domain errors to HTTP status codes
func recordErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrRecordWaived),
		errors.Is(err, services.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrRefundExceedsPaid),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrDiscountTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Assign creates a fee record for a member from a structure
func (h *FeeRecordHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req models.AssignFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	rec, err := h.Service.Assign(r.Context(), &req, userID)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *FeeRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	rec, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Fee record not found")
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *FeeRecordHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FeeRecordFilter{
		Status: models.FeeStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	filter.MemberID, _ = strconv.Atoi(q.Get("member_id"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	records, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
	})
}

// RecordPayment applies a manual payment to a record
func (h *FeeRecordHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	payment, err := h.Service.RecordPayment(r.Context(), id, &req, userID)
	if err != nil {
		utils.Error(w, recordErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

// RecordRefund issues a refund against a record
func (h *FeeRecordHandler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.RecordRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	refund, err := h.Service.RecordRefund(r.Context(), id, &req, userID)
	if err != nil {
		utils.Error(w, recordErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, refund)
}

// Waive marks a record waived (terminal)
func (h *FeeRecordHandler) Waive(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.WaiveFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.Waive(r.Context(), id, &req); err != nil {
		utils.Error(w, recordErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Fee record waived"})
}

// Installments returns the selectable installment options for a record
func (h *FeeRecordHandler) Installments(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	options, next, err := h.Service.InstallmentOptions(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Fee record not found")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"options":          options,
		"next_installment": next,
	})
}

// SendReminder sends a fee reminder SMS to the member
func (h *FeeRecordHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	reminder, err := h.Service.SendReminder(r.Context(), id, userID)
	if err != nil {
		utils.Error(w, recordErrorStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, reminder)
}

// Reminders lists the reminder history of a record
func (h *FeeRecordHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	logs, err := h.Service.Reminders(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}

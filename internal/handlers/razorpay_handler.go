package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"fee-backend/internal/models"
	"fee-backend/internal/services"
	"fee-backend/internal/timeutil"
	"fee-backend/pkg/utils"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
}

func NewRazorpayHandler(s *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{Service: s}
}

// Status tells the client whether online payment is available
func (h *RazorpayHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.GetPaymentStatus(r.Context()))
}

// CreateOrder opens a gateway order for a fee record
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrPaymentsDisabled),
			errors.Is(err, services.ErrGatewayUnavailable):
			status = http.StatusServiceUnavailable
		case errors.Is(err, services.ErrRecordWaived),
			errors.Is(err, services.ErrNothingToPay):
			status = http.StatusConflict
		}
		utils.Error(w, status, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// VerifyPayment handles the checkout callback from the client
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrInvalidSignature) {
			status = http.StatusUnauthorized
		}
		utils.Error(w, status, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, tx)
}

// CancelOrder marks a checkout dismissed by the payer
func (h *RazorpayHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.CancelOrder(r.Context(), req.RazorpayOrderID); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Order cancelled"})
}

// Webhook receives gateway events. Always answers 200 once the signature
// checks out so the gateway does not retry storms on processing hiccups.
func (h *RazorpayHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(r.Context(), body, signature) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var event struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.Service.ProcessWebhook(r.Context(), event.Event, event.Payload); err != nil {
		log.Printf("[Razorpay] Webhook %s processing error: %v", event.Event, err)
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTransactions is the admin gateway transaction listing
func (h *RazorpayHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.OnlineTransactionFilter{Status: q.Get("status")}
	filter.MemberID, _ = strconv.Atoi(q.Get("member_id"))
	filter.FeeRecordID, _ = strconv.Atoi(q.Get("fee_record_id"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	if start := q.Get("start_date"); start != "" {
		if t, err := timeutil.ParseInIST(timeutil.DateLayout, start); err == nil {
			filter.StartDate = &t
		}
	}
	if end := q.Get("end_date"); end != "" {
		if t, err := timeutil.ParseInIST(timeutil.DateLayout, end); err == nil {
			e := timeutil.EndOfDay(t)
			filter.EndDate = &e
		}
	}

	txs, total, err := h.Service.ListTransactions(r.Context(), filter)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
	})
}

// ListFailed returns recent failed payment attempts
func (h *RazorpayHandler) ListFailed(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txs, err := h.Service.ListFailed(r.Context(), limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, txs)
}

// Summary aggregates gateway activity
func (h *RazorpayHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var start, end *time.Time
	if s := q.Get("start_date"); s != "" {
		if t, err := timeutil.ParseInIST(timeutil.DateLayout, s); err == nil {
			start = &t
		}
	}
	if e := q.Get("end_date"); e != "" {
		if t, err := timeutil.ParseInIST(timeutil.DateLayout, e); err == nil {
			eod := timeutil.EndOfDay(t)
			end = &eod
		}
	}

	summary, err := h.Service.GetSummary(r.Context(), start, end)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

// Reconcile settles pending orders the client never reported back on
func (h *RazorpayHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.Reconcile(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"reconciled": count})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fee-backend/internal/services"
	"fee-backend/internal/storage"
	"fee-backend/internal/timeutil"
	"fee-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Service *services.ReportService
	Archive *storage.ReceiptArchive
}

func NewReportHandler(s *services.ReportService, archive *storage.ReceiptArchive) *ReportHandler {
	return &ReportHandler{Service: s, Archive: archive}
}

// dateRange parses start_date/end_date query params, defaulting to the
// current month in IST. End is exclusive.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := timeutil.Now()

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, timeutil.IST)
	end := start.AddDate(0, 1, 0)

	if s := q.Get("start_date"); s != "" {
		t, err := timeutil.ParseInIST(timeutil.DateLayout, s)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date: %w", err)
		}
		start = t
	}
	if e := q.Get("end_date"); e != "" {
		t, err := timeutil.ParseInIST(timeutil.DateLayout, e)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func (h *ReportHandler) CollectionSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.Service.CollectionSummary(r.Context(), start, end)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) ModeBreakdown(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	breakdown, err := h.Service.ModeBreakdown(r.Context(), start, end)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, breakdown)
}

func (h *ReportHandler) Dues(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Dues(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) DuesCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.DuesCSV(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=dues.csv")
	w.Write(data)
}

func (h *ReportHandler) CollectionsCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.Service.CollectionsCSV(r.Context(), start, end)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=collections.csv")
	w.Write(data)
}

// ReceiptPDF renders a payment receipt and archives a copy in the background
func (h *ReportHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	paymentID, _ := strconv.Atoi(mux.Vars(r)["payment_id"])

	pdf, err := h.Service.ReceiptPDF(r.Context(), paymentID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Payment not found")
		return
	}

	// Archive upload outlives the request, so it gets its own context
	if payment, err := h.Service.Payment(r.Context(), paymentID); err == nil {
		go h.Archive.Store(context.Background(), payment.ReceiptNumber, pdf)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=receipt_%d.pdf", paymentID))
	w.Write(pdf)
}

// ReceiptText renders a plain-text receipt
func (h *ReportHandler) ReceiptText(w http.ResponseWriter, r *http.Request) {
	paymentID, _ := strconv.Atoi(mux.Vars(r)["payment_id"])

	text, err := h.Service.ReceiptText(r.Context(), paymentID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Payment not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fee-backend/internal/cache"
	"fee-backend/internal/fees"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"
	"fee-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService generates collection summaries, dues reports, exports and
// payment receipts.
type ReportService struct {
	reportRepo  *repositories.ReportRepository
	recordRepo  *repositories.FeeRecordRepository
	settingRepo *repositories.SystemSettingRepository
}

func NewReportService(
	reportRepo *repositories.ReportRepository,
	recordRepo *repositories.FeeRecordRepository,
	settingRepo *repositories.SystemSettingRepository,
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		recordRepo:  recordRepo,
		settingRepo: settingRepo,
	}
}

func (s *ReportService) instituteName(ctx context.Context) string {
	return s.settingRepo.GetValue(ctx, "institute_name", "Coaching Institute")
}

// Payment looks up a single fee payment by id
func (s *ReportService) Payment(ctx context.Context, paymentID int) (*models.FeePayment, error) {
	return s.recordRepo.GetPayment(ctx, paymentID)
}

// CollectionSummary aggregates collections in [start, end), cached briefly
// since the dashboard polls it.
func (s *ReportService) CollectionSummary(ctx context.Context, start, end time.Time) (*models.CollectionSummary, error) {
	key := fmt.Sprintf("%s:%s:%s", cache.CollectionsKey,
		start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout))
	if data, ok := cache.GetCached(ctx, key); ok {
		var summary models.CollectionSummary
		if err := json.Unmarshal(data, &summary); err == nil {
			return &summary, nil
		}
	}

	summary, err := s.reportRepo.CollectionSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(summary); err == nil {
		cache.SetCached(ctx, key, data, 2*time.Minute)
	}
	return summary, nil
}

func (s *ReportService) ModeBreakdown(ctx context.Context, start, end time.Time) ([]models.ModeCollection, error) {
	key := fmt.Sprintf("%s:%s:%s", cache.ModeBreakdownKey,
		start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout))
	if data, ok := cache.GetCached(ctx, key); ok {
		var breakdown []models.ModeCollection
		if err := json.Unmarshal(data, &breakdown); err == nil {
			return breakdown, nil
		}
	}

	breakdown, err := s.reportRepo.ModeBreakdown(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(breakdown); err == nil {
		cache.SetCached(ctx, key, data, 2*time.Minute)
	}
	return breakdown, nil
}

// Dues reports every outstanding record with days overdue as of now
func (s *ReportService) Dues(ctx context.Context) (*models.DuesReport, error) {
	if data, ok := cache.GetCached(ctx, cache.DuesKey); ok {
		var report models.DuesReport
		if err := json.Unmarshal(data, &report); err == nil {
			return &report, nil
		}
	}

	report, err := s.reportRepo.Dues(ctx)
	if err != nil {
		return nil, err
	}
	now := timeutil.Now()
	for i := range report.Rows {
		report.Rows[i].DaysOverdue = fees.DaysOverdue(report.Rows[i].DueDate, now)
	}

	if data, err := json.Marshal(report); err == nil {
		cache.SetCached(ctx, cache.DuesKey, data, 2*time.Minute)
	}
	return report, nil
}

// DuesCSV exports the dues report for spreadsheets
func (s *ReportService) DuesCSV(ctx context.Context) ([]byte, error) {
	report, err := s.Dues(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Member", "Phone", "Batch", "Final Amount", "Paid", "Balance", "Status", "Due Date", "Days Overdue"})
	for _, row := range report.Rows {
		w.Write([]string{
			row.MemberName,
			row.MemberPhone,
			row.Batch,
			fmt.Sprintf("%.2f", row.FinalAmount),
			fmt.Sprintf("%.2f", row.PaidAmount),
			fmt.Sprintf("%.2f", row.Balance),
			string(row.Status),
			timeutil.FormatIST(row.DueDate, timeutil.DateLayout),
			strconv.Itoa(row.DaysOverdue),
		})
	}
	w.Write([]string{"", "", "", "", "", fmt.Sprintf("%.2f", report.TotalOutstanding), "", "", ""})
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CollectionsCSV exports every payment in the window
func (s *ReportService) CollectionsCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	payments, err := s.reportRepo.ListPaymentsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Receipt", "Date", "Amount", "Mode", "Reference", "Recorded By", "Notes"})
	total := 0.0
	for _, p := range payments {
		w.Write([]string{
			p.ReceiptNumber,
			timeutil.FormatIST(p.PaidAt, timeutil.DateTimeLayout),
			fmt.Sprintf("%.2f", p.Amount),
			string(p.Mode),
			p.TransactionRef,
			p.RecordedByName,
			p.Notes,
		})
		total += p.Amount
	}
	w.Write([]string{"", "Total", fmt.Sprintf("%.2f", total), "", "", "", ""})
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ReceiptPDF renders a printable receipt for one payment, with the frozen
// GST breakup when the record carries tax.
func (s *ReportService) ReceiptPDF(ctx context.Context, paymentID int) ([]byte, error) {
	payment, err := s.recordRepo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	rec, err := s.recordRepo.Get(ctx, payment.FeeRecordID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(128, 10, s.instituteName(ctx), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(128, 7, "Fee Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, "Receipt No:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(88, 7, payment.ReceiptNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, "Date:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(88, 7, timeutil.FormatIST(payment.PaidAt, timeutil.DisplayLayout), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, "Member:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(88, 7, fmt.Sprintf("%s (%s)", rec.MemberName, rec.MemberPhone), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, "Mode:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	mode := string(payment.Mode)
	if payment.TransactionRef != "" {
		mode = fmt.Sprintf("%s (%s)", mode, payment.TransactionRef)
	}
	pdf.CellFormat(88, 7, mode, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(88, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(rec.LineItems) > 0 {
		for _, item := range rec.LineItems {
			pdf.CellFormat(88, 6, item.Label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", item.Amount), "1", 1, "R", false, 0, "")
		}
	} else {
		pdf.CellFormat(88, 6, "Fee", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.BaseAmount), "1", 1, "R", false, 0, "")
	}
	if rec.DiscountAmount > 0 {
		pdf.CellFormat(88, 6, "Discount", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("- Rs. %.2f", rec.DiscountAmount), "1", 1, "R", false, 0, "")
	}
	if rec.FineAmount > 0 {
		pdf.CellFormat(88, 6, "Late Fine", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.FineAmount), "1", 1, "R", false, 0, "")
	}

	if rec.TaxType != models.TaxNone && rec.TaxAmount > 0 {
		label := "GST"
		if rec.TaxType == models.TaxGSTInclusive {
			label = "GST (included)"
		}
		if rec.SACCode != "" {
			label = fmt.Sprintf("%s, SAC %s", label, rec.SACCode)
		}
		if rec.IGSTAmount > 0 {
			pdf.CellFormat(88, 6, fmt.Sprintf("IGST @ %.1f%% (%s)", rec.GSTRate, label), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.IGSTAmount), "1", 1, "R", false, 0, "")
		} else {
			pdf.CellFormat(88, 6, fmt.Sprintf("CGST @ %.2f%% (%s)", rec.GSTRate/2, label), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.CGSTAmount), "1", 1, "R", false, 0, "")
			pdf.CellFormat(88, 6, fmt.Sprintf("SGST @ %.2f%%", rec.GSTRate/2), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.SGSTAmount), "1", 1, "R", false, 0, "")
		}
		if rec.CessAmount > 0 {
			pdf.CellFormat(88, 6, "Cess", "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", rec.CessAmount), "1", 1, "R", false, 0, "")
		}
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(88, 8, "Amount Paid", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("Rs. %.2f", payment.Amount), "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	balanceText := fmt.Sprintf("Balance Due: Rs. %.2f", rec.Balance)
	if rec.Balance <= fees.Epsilon {
		balanceText = "FULLY PAID"
	}
	pdf.Ln(3)
	pdf.CellFormat(128, 8, balanceText, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReceiptText renders a plain-text receipt for SMS or thermal printers
func (s *ReportService) ReceiptText(ctx context.Context, paymentID int) (string, error) {
	payment, err := s.recordRepo.GetPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}
	rec, err := s.recordRepo.Get(ctx, payment.FeeRecordID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	line := strings.Repeat("-", 32)
	fmt.Fprintf(&b, "%s\n", s.instituteName(ctx))
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "Receipt : %s\n", payment.ReceiptNumber)
	fmt.Fprintf(&b, "Date    : %s\n", timeutil.FormatIST(payment.PaidAt, timeutil.DisplayLayout))
	fmt.Fprintf(&b, "Member  : %s\n", rec.MemberName)
	fmt.Fprintf(&b, "Phone   : %s\n", rec.MemberPhone)
	fmt.Fprintf(&b, "Mode    : %s\n", payment.Mode)
	if payment.TransactionRef != "" {
		fmt.Fprintf(&b, "Ref     : %s\n", payment.TransactionRef)
	}
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "Paid    : Rs. %.2f\n", payment.Amount)
	if rec.TaxAmount > 0 {
		fmt.Fprintf(&b, "GST     : Rs. %.2f\n", rec.TaxAmount)
	}
	if rec.Balance <= fees.Epsilon {
		fmt.Fprintf(&b, "Status  : FULLY PAID\n")
	} else {
		fmt.Fprintf(&b, "Balance : Rs. %.2f\n", rec.Balance)
	}
	fmt.Fprintf(&b, "%s\n", line)
	return b.String(), nil
}

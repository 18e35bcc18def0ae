package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"fee-backend/internal/cache"
	"fee-backend/internal/fees"
	"fee-backend/internal/metrics"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"
	"fee-backend/internal/sms"
	"fee-backend/internal/timeutil"

	"github.com/go-playground/validator/v10"
)

var (
	ErrRecordWaived      = errors.New("record is waived and cannot be modified")
	ErrOverpayment       = errors.New("amount exceeds outstanding balance")
	ErrAlreadyPaid       = errors.New("record is already fully paid")
	ErrRefundExceedsPaid = errors.New("refund exceeds the amount paid")
	ErrInvalidMode       = errors.New("invalid payment mode")
	ErrDiscountTooLarge  = errors.New("discount cannot exceed the base amount")
)

// FeeRecordService owns the fee record lifecycle: assignment, payments,
// refunds, waivers, fines and reminders. All money arithmetic goes through
// the fees package; this layer orchestrates persistence around it.
type FeeRecordService struct {
	recordRepo    *repositories.FeeRecordRepository
	structureRepo *repositories.FeeStructureRepository
	memberRepo    *repositories.MemberRepository
	settingRepo   *repositories.SystemSettingRepository
	reminderRepo  *repositories.ReminderLogRepository
	smsProvider   sms.Provider
	validate      *validator.Validate
}

func NewFeeRecordService(
	recordRepo *repositories.FeeRecordRepository,
	structureRepo *repositories.FeeStructureRepository,
	memberRepo *repositories.MemberRepository,
	settingRepo *repositories.SystemSettingRepository,
	reminderRepo *repositories.ReminderLogRepository,
	smsProvider sms.Provider,
) *FeeRecordService {
	return &FeeRecordService{
		recordRepo:    recordRepo,
		structureRepo: structureRepo,
		memberRepo:    memberRepo,
		settingRepo:   settingRepo,
		reminderRepo:  reminderRepo,
		smsProvider:   smsProvider,
		validate:      validator.New(),
	}
}

// Assign creates a billing instance for a member from a structure. The
// structure's amounts, line items and tax split are frozen onto the record
// at this moment; later structure edits never touch existing records.
func (s *FeeRecordService) Assign(ctx context.Context, req *models.AssignFeeRequest, userID int) (*models.FeeRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Get(ctx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("member not found: %w", err)
	}

	structure, err := s.structureRepo.Get(ctx, req.FeeStructureID)
	if err != nil {
		return nil, fmt.Errorf("fee structure not found: %w", err)
	}

	if req.DiscountAmount > structure.Amount {
		return nil, ErrDiscountTooLarge
	}

	dueDate, err := timeutil.ParseInIST(timeutil.DateLayout, req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due date, expected YYYY-MM-DD: %w", err)
	}

	split := fees.TaxAtAssignment(structure.Amount, req.DiscountAmount,
		structure.TaxType, structure.GSTRate, structure.CessRate, structure.GSTSupplyType)

	rec := &models.FeeRecord{
		MemberID:       member.ID,
		MemberName:     member.Name,
		MemberPhone:    member.Phone,
		FeeStructureID: &structure.ID,
		BaseAmount:     structure.Amount,
		DiscountAmount: req.DiscountAmount,
		Status:         models.FeeStatusPending,
		DueDate:        dueDate,
		TaxType:        structure.TaxType,
		GSTRate:        structure.GSTRate,
		TaxAmount:      split.TaxAmount,
		CGSTAmount:     split.CGSTAmount,
		SGSTAmount:     split.SGSTAmount,
		IGSTAmount:     split.IGSTAmount,
		CessAmount:     split.CessAmount,
		SACCode:        structure.SACCode,
		LineItems:      structure.LineItems,
	}

	b := fees.ComputeTotals(rec, timeutil.Now())
	rec.FinalAmount = b.FinalAmount
	rec.Balance = b.Balance
	rec.Status = b.Status

	if err := s.recordRepo.Create(ctx, rec); err != nil {
		return nil, err
	}
	cache.InvalidateFeeRecordCaches(ctx, rec.ID)
	log.Printf("[FeeRecords] Assigned structure %d to member %d (record %d, final %.2f)",
		structure.ID, member.ID, rec.ID, rec.FinalAmount)
	return rec, nil
}

// Get loads a record with payments and refunds, accruing any late fine
// that has grown since the last read.
func (s *FeeRecordService) Get(ctx context.Context, id int) (*models.FeeRecord, error) {
	if data, ok := cache.GetCached(ctx, cache.FeeRecordKey(id)); ok {
		var rec models.FeeRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
	}

	rec, err := s.recordRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, rec); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rec); err == nil {
		cache.SetCached(ctx, cache.FeeRecordKey(id), data, time.Minute)
	}
	return rec, nil
}

// List returns records matching the filter. Statuses are recomputed for
// display; persistence of drifted statuses happens on the next Get or the
// nightly sweep, not here.
func (s *FeeRecordService) List(ctx context.Context, filter models.FeeRecordFilter) ([]*models.FeeRecord, int, error) {
	records, total, err := s.recordRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	now := timeutil.Now()
	for _, rec := range records {
		b := fees.ComputeTotals(rec, now)
		rec.FinalAmount = b.FinalAmount
		rec.Balance = b.Balance
		rec.Status = b.Status
	}
	return records, total, nil
}

// RecordPayment applies a manual payment. Overpayment is rejected; a
// payment that lands within a paisa of the balance settles the record.
func (s *FeeRecordService) RecordPayment(ctx context.Context, recordID int, req *models.RecordPaymentRequest, userID int) (*models.FeePayment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !models.ValidPaymentMode(req.Mode) {
		return nil, ErrInvalidMode
	}

	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, rec); err != nil {
		return nil, err
	}

	if rec.Status == models.FeeStatusWaived {
		return nil, ErrRecordWaived
	}
	if rec.Balance <= fees.Epsilon {
		return nil, ErrAlreadyPaid
	}
	if req.Amount > rec.Balance+fees.Epsilon {
		return nil, ErrOverpayment
	}

	now := timeutil.Now()
	rec.PaidAmount = fees.RoundPaise(rec.PaidAmount + req.Amount)
	b := fees.ComputeTotals(rec, now)
	rec.Balance = b.Balance
	rec.Status = b.Status
	if b.IsPaid && rec.PaidAt == nil {
		rec.PaidAt = &now
	}

	payment := &models.FeePayment{
		FeeRecordID:      rec.ID,
		Amount:           fees.RoundPaise(req.Amount),
		Mode:             req.Mode,
		TransactionRef:   req.TransactionRef,
		Notes:            req.Notes,
		PaidAt:           now,
		RecordedByUserID: userID,
	}
	if err := s.recordRepo.AddPayment(ctx, payment, rec); err != nil {
		return nil, err
	}

	cache.InvalidateFeeRecordCaches(ctx, rec.ID)
	metrics.PaymentsRecorded.WithLabelValues(string(req.Mode)).Inc()
	metrics.PaymentAmountTotal.WithLabelValues(string(req.Mode)).Add(payment.Amount)
	log.Printf("[FeeRecords] Payment %s of %.2f on record %d (%s)",
		payment.ReceiptNumber, payment.Amount, rec.ID, req.Mode)
	return payment, nil
}

// RecordGatewayPayment applies a captured online payment to a record. The
// gateway already holds the money, so unlike manual entry this never
// rejects: a record settled through another channel while the checkout was
// open simply floors its balance at zero.
func (s *FeeRecordService) RecordGatewayPayment(ctx context.Context, recordID int, amount float64, orderID, paymentID, utr string) (*models.FeePayment, error) {
	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, rec); err != nil {
		return nil, err
	}

	if amount > rec.Balance+fees.Epsilon {
		log.Printf("[FeeRecords] Gateway payment %.2f exceeds balance %.2f on record %d, recording anyway",
			amount, rec.Balance, rec.ID)
	}

	now := timeutil.Now()
	rec.PaidAmount = fees.RoundPaise(rec.PaidAmount + amount)
	b := fees.ComputeTotals(rec, now)
	rec.Balance = b.Balance
	rec.Status = b.Status
	if b.IsPaid && rec.PaidAt == nil {
		rec.PaidAt = &now
	}

	payment := &models.FeePayment{
		FeeRecordID:       rec.ID,
		Amount:            fees.RoundPaise(amount),
		Mode:              models.ModeOnline,
		TransactionRef:    utr,
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		PaidAt:            now,
	}
	if err := s.recordRepo.AddPayment(ctx, payment, rec); err != nil {
		return nil, err
	}

	cache.InvalidateFeeRecordCaches(ctx, rec.ID)
	metrics.PaymentsRecorded.WithLabelValues(string(models.ModeOnline)).Inc()
	metrics.PaymentAmountTotal.WithLabelValues(string(models.ModeOnline)).Add(payment.Amount)
	log.Printf("[FeeRecords] Online payment %s of %.2f on record %d (order %s)",
		payment.ReceiptNumber, payment.Amount, rec.ID, orderID)
	return payment, nil
}

// RecordRefund issues a refund. Paid amount never drops below zero, and a
// settled record reopens when the refund uncovers a balance.
func (s *FeeRecordService) RecordRefund(ctx context.Context, recordID int, req *models.RecordRefundRequest, userID int) (*models.FeeRefund, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !models.ValidPaymentMode(req.Mode) {
		return nil, ErrInvalidMode
	}

	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.FeeStatusWaived {
		return nil, ErrRecordWaived
	}
	if req.Amount > rec.PaidAmount+fees.Epsilon {
		return nil, ErrRefundExceedsPaid
	}

	now := timeutil.Now()
	rec.PaidAmount = fees.RoundPaise(rec.PaidAmount - req.Amount)
	if rec.PaidAmount < 0 {
		rec.PaidAmount = 0
	}
	b := fees.ComputeTotals(rec, now)
	rec.Balance = b.Balance
	rec.Status = b.Status
	if !b.IsPaid {
		rec.PaidAt = nil
	}

	refund := &models.FeeRefund{
		FeeRecordID:      rec.ID,
		Amount:           fees.RoundPaise(req.Amount),
		Mode:             req.Mode,
		Reason:           req.Reason,
		RefundedAt:       now,
		RecordedByUserID: userID,
	}
	if err := s.recordRepo.AddRefund(ctx, refund, rec); err != nil {
		return nil, err
	}

	cache.InvalidateFeeRecordCaches(ctx, rec.ID)
	log.Printf("[FeeRecords] Refund of %.2f on record %d (%s)", refund.Amount, rec.ID, req.Mode)
	return refund, nil
}

// Waive marks a record waived. Waived is terminal: no payments, refunds or
// fines after this point.
func (s *FeeRecordService) Waive(ctx context.Context, recordID int, req *models.WaiveFeeRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}

	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Status == models.FeeStatusWaived {
		return ErrRecordWaived
	}

	if err := s.recordRepo.Waive(ctx, recordID, req.Reason); err != nil {
		return err
	}
	cache.InvalidateFeeRecordCaches(ctx, recordID)
	log.Printf("[FeeRecords] Waived record %d: %s", recordID, req.Reason)
	return nil
}

// InstallmentOptions returns the selectable installments for a record plus
// the amount a "pay next" action would charge.
func (s *FeeRecordService) InstallmentOptions(ctx context.Context, recordID int) ([]fees.InstallmentOption, float64, error) {
	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.refresh(ctx, rec); err != nil {
		return nil, 0, err
	}

	structure, err := s.structureOf(ctx, rec)
	if err != nil {
		return nil, 0, err
	}

	options := fees.BuildInstallmentOptions(rec, structure)
	next := fees.NextInstallmentAmount(rec, structure)
	return options, next, nil
}

// NextInstallment is what an online order with amount zero charges
func (s *FeeRecordService) NextInstallment(ctx context.Context, rec *models.FeeRecord) (float64, error) {
	structure, err := s.structureOf(ctx, rec)
	if err != nil {
		return 0, err
	}
	return fees.NextInstallmentAmount(rec, structure), nil
}

// SendReminder sends a fee reminder SMS to the member and logs the outcome
func (s *FeeRecordService) SendReminder(ctx context.Context, recordID, userID int) (*models.ReminderLog, error) {
	rec, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, rec); err != nil {
		return nil, err
	}

	if rec.Status == models.FeeStatusWaived {
		return nil, ErrRecordWaived
	}
	if rec.Balance <= fees.Epsilon {
		return nil, ErrAlreadyPaid
	}

	b := fees.ComputeTotals(rec, timeutil.Now())
	messageType := models.ReminderTypeDue
	templateKey := "reminder_template_due"
	if b.IsOverdue {
		messageType = models.ReminderTypeOverdue
		templateKey = "reminder_template_overdue"
	}

	template := s.settingRepo.GetValue(ctx, templateKey,
		"Dear {name}, your fee of Rs {balance} is due. Please pay at the earliest.")
	message := strings.NewReplacer(
		"{name}", rec.MemberName,
		"{balance}", fmt.Sprintf("%.2f", rec.Balance),
		"{due_date}", timeutil.FormatIST(rec.DueDate, timeutil.DateLayout),
		"{days}", strconv.Itoa(b.DaysOverdue),
	).Replace(template)

	reminder := &models.ReminderLog{
		FeeRecordID: rec.ID,
		MemberID:    rec.MemberID,
		Phone:       rec.MemberPhone,
		Message:     message,
		MessageType: messageType,
		Status:      "sent",
		SentByUser:  userID,
	}

	if err := s.smsProvider.SendSMS(rec.MemberPhone, message); err != nil {
		reminder.Status = "failed"
		reminder.Error = err.Error()
		s.reminderRepo.Create(ctx, reminder)
		return nil, fmt.Errorf("failed to send reminder: %w", err)
	}

	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		log.Printf("[FeeRecords] Failed to log reminder for record %d: %v", rec.ID, err)
	}
	now := timeutil.Now()
	if err := s.recordRepo.MarkReminderSent(ctx, rec.ID, now); err != nil {
		log.Printf("[FeeRecords] Failed to mark reminder sent on record %d: %v", rec.ID, err)
	}
	rec.ReminderSentAt = &now
	cache.InvalidateFeeRecordCaches(ctx, rec.ID)
	return reminder, nil
}

// Reminders lists the reminder history of a record
func (s *FeeRecordService) Reminders(ctx context.Context, recordID int) ([]*models.ReminderLog, error) {
	return s.reminderRepo.ListByRecord(ctx, recordID)
}

// AccrueFines sweeps outstanding records and persists grown fines and
// overdue statuses. Run daily.
func (s *FeeRecordService) AccrueFines(ctx context.Context) (int, error) {
	records, err := s.recordRepo.ListOutstanding(ctx, timeutil.Now())
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, rec := range records {
		before := rec.FineAmount
		beforeStatus := rec.Status
		if err := s.refresh(ctx, rec); err != nil {
			log.Printf("[FeeRecords] Fine accrual failed for record %d: %v", rec.ID, err)
			continue
		}
		if rec.FineAmount != before || rec.Status != beforeStatus {
			updated++
		}
	}
	if updated > 0 {
		cache.InvalidateFeeRecordCaches(ctx, 0)
		log.Printf("[FeeRecords] Fine sweep updated %d of %d outstanding records", updated, len(records))
	}
	return updated, nil
}

// refresh accrues the late fine from the originating structure and persists
// the record when anything drifted. Fines only grow; a rate change on the
// structure never reduces an already-accrued fine.
func (s *FeeRecordService) refresh(ctx context.Context, rec *models.FeeRecord) error {
	now := timeutil.Now()

	if rec.Status != models.FeeStatusWaived {
		structure, err := s.structureOf(ctx, rec)
		if err != nil {
			return err
		}
		if structure != nil && structure.LateFinePerDay > 0 && rec.Balance > fees.Epsilon {
			fine := fees.LateFine(structure.LateFinePerDay, fees.DaysOverdue(rec.DueDate, now))
			if fine > rec.FineAmount {
				rec.FineAmount = fine
			}
		}
	}

	b := fees.ComputeTotals(rec, now)
	changed := rec.FinalAmount != b.FinalAmount || rec.Balance != b.Balance || rec.Status != b.Status

	rec.FinalAmount = b.FinalAmount
	rec.Balance = b.Balance
	if rec.Status != models.FeeStatusWaived {
		rec.Status = b.Status
	}

	if changed {
		if err := s.recordRepo.Update(ctx, rec); err != nil {
			return err
		}
		cache.InvalidateKeys(ctx, cache.FeeRecordKey(rec.ID))
	}
	return nil
}

func (s *FeeRecordService) structureOf(ctx context.Context, rec *models.FeeRecord) (*models.FeeStructure, error) {
	if rec.FeeStructureID == nil {
		return nil, nil
	}
	structure, err := s.structureRepo.Get(ctx, *rec.FeeStructureID)
	if err != nil {
		// A missing structure degrades to no plan and no fine, not an error
		log.Printf("[FeeRecords] Structure %d for record %d not found: %v", *rec.FeeStructureID, rec.ID, err)
		return nil, nil
	}
	return structure, nil
}

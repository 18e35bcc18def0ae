package models

import "time"

// FeeStatus is the lifecycle state of a fee record
type FeeStatus string

const (
	FeeStatusPending       FeeStatus = "PENDING"
	FeeStatusPartiallyPaid FeeStatus = "PARTIALLY_PAID"
	FeeStatusPaid          FeeStatus = "PAID"
	FeeStatusOverdue       FeeStatus = "OVERDUE"
	FeeStatusWaived        FeeStatus = "WAIVED"
)

// PaymentMode is the closed set of accepted payment channels.
// Razorpay order/payment/signature fields are populated only for ONLINE.
type PaymentMode string

const (
	ModeCash         PaymentMode = "CASH"
	ModeUPI          PaymentMode = "UPI"
	ModeBankTransfer PaymentMode = "BANK_TRANSFER"
	ModeCheque       PaymentMode = "CHEQUE"
	ModeOnline       PaymentMode = "ONLINE"
	ModeOther        PaymentMode = "OTHER"
)

// ValidPaymentMode reports whether m is one of the closed mode set
func ValidPaymentMode(m PaymentMode) bool {
	switch m {
	case ModeCash, ModeUPI, ModeBankTransfer, ModeCheque, ModeOnline, ModeOther:
		return true
	}
	return false
}

// FeePayment is one payment applied to a fee record
type FeePayment struct {
	ID             int         `json:"id"`
	FeeRecordID    int         `json:"fee_record_id"`
	ReceiptNumber  string      `json:"receipt_number"`
	Amount         float64     `json:"amount"`
	Mode           PaymentMode `json:"mode"`
	TransactionRef string      `json:"transaction_ref,omitempty"`

	// ONLINE mode only
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`

	Notes            string    `json:"notes,omitempty"`
	PaidAt           time.Time `json:"paid_at"`
	RecordedByUserID int       `json:"recorded_by_user_id"`
	RecordedByName   string    `json:"recorded_by_name,omitempty"` // joined from users
	CreatedAt        time.Time `json:"created_at"`
}

// FeeRefund is one refund issued against a fee record
type FeeRefund struct {
	ID               int         `json:"id"`
	FeeRecordID      int         `json:"fee_record_id"`
	Amount           float64     `json:"amount"`
	Mode             PaymentMode `json:"mode"`
	Reason           string      `json:"reason"`
	RefundedAt       time.Time   `json:"refunded_at"`
	RecordedByUserID int         `json:"recorded_by_user_id"`
	CreatedAt        time.Time   `json:"created_at"`
}

// FeeRecord is one member's billing instance derived from a structure at
// assignment time. Tax fields are frozen copies so later structure edits
// cannot drift the authoritative amounts. Records are never hard-deleted.
type FeeRecord struct {
	ID          int    `json:"id"`
	MemberID    int    `json:"member_id"`
	MemberName  string `json:"member_name"`
	MemberPhone string `json:"member_phone"`

	FeeStructureID *int `json:"fee_structure_id,omitempty"`

	BaseAmount     float64 `json:"base_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FineAmount     float64 `json:"fine_amount"`
	FinalAmount    float64 `json:"final_amount"`
	PaidAmount     float64 `json:"paid_amount"`
	Balance        float64 `json:"balance"`

	Status  FeeStatus  `json:"status"`
	DueDate time.Time  `json:"due_date"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`

	// Frozen from the structure at assignment time
	TaxType    TaxType `json:"tax_type"`
	GSTRate    float64 `json:"gst_rate"`
	TaxAmount  float64 `json:"tax_amount"`
	CGSTAmount float64 `json:"cgst_amount"`
	SGSTAmount float64 `json:"sgst_amount"`
	IGSTAmount float64 `json:"igst_amount"`
	CessAmount float64 `json:"cess_amount"`
	SACCode    string  `json:"sac_code,omitempty"`

	LineItems []FeeLineItem `json:"line_items,omitempty"`

	WaivedAt       *time.Time `json:"waived_at,omitempty"`
	WaiveReason    string     `json:"waive_reason,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	Payments []*FeePayment `json:"payments,omitempty"`
	Refunds  []*FeeRefund  `json:"refunds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignFeeRequest creates a fee record for a member from a structure
type AssignFeeRequest struct {
	MemberID       int     `json:"member_id" validate:"required,gt=0"`
	FeeStructureID int     `json:"fee_structure_id" validate:"required,gt=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	DueDate        string  `json:"due_date" validate:"required"` // YYYY-MM-DD, interpreted in IST
}

// RecordPaymentRequest applies a manual payment to a record
type RecordPaymentRequest struct {
	Amount         float64     `json:"amount" validate:"required,gt=0"`
	Mode           PaymentMode `json:"mode" validate:"required,oneof=CASH UPI BANK_TRANSFER CHEQUE ONLINE OTHER"`
	TransactionRef string      `json:"transaction_ref"`
	Notes          string      `json:"notes"`
}

// RecordRefundRequest issues a refund against a record
type RecordRefundRequest struct {
	Amount float64     `json:"amount" validate:"required,gt=0"`
	Mode   PaymentMode `json:"mode" validate:"required,oneof=CASH UPI BANK_TRANSFER CHEQUE ONLINE OTHER"`
	Reason string      `json:"reason" validate:"required"`
}

// WaiveFeeRequest marks a record waived (terminal)
type WaiveFeeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// FeeRecordFilter narrows record listings
type FeeRecordFilter struct {
	MemberID int       `json:"member_id,omitempty"`
	Status   FeeStatus `json:"status,omitempty"`
	Search   string    `json:"search,omitempty"` // member name or phone
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

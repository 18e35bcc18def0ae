package models

import "time"

// OnlineTransactionStatus is the state of a gateway order
type OnlineTransactionStatus string

const (
	OnlineTxStatusPending   OnlineTransactionStatus = "pending"
	OnlineTxStatusSuccess   OnlineTransactionStatus = "success"
	OnlineTxStatusFailed    OnlineTransactionStatus = "failed"
	OnlineTxStatusCancelled OnlineTransactionStatus = "cancelled"
)

// OnlineTransaction is one Razorpay order for a fee record. Failed orders
// are kept with their reason so the failed-attempts list can show them.
type OnlineTransaction struct {
	ID                int    `json:"id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `json:"-"`

	FeeRecordID int    `json:"fee_record_id"`
	MemberID    int    `json:"member_id"`
	MemberName  string `json:"member_name"`
	MemberPhone string `json:"member_phone"`

	// Amounts in rupees; paise conversion happens at the gateway boundary
	Amount float64 `json:"amount"`

	// Payment details fetched from Razorpay after capture
	UTRNumber     string `json:"utr_number,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"` // upi, card, netbanking, wallet
	Bank          string `json:"bank,omitempty"`
	VPA           string `json:"vpa,omitempty"`

	Status        OnlineTransactionStatus `json:"status"`
	FailureReason string                  `json:"failure_reason,omitempty"`

	// Set once the successful payment is applied to the fee record
	FeePaymentID *int `json:"fee_payment_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateOrderRequest initiates an online payment for a fee record.
// Amount zero means "charge the next installment" (or the full balance
// when the structure has no installment plan).
type CreateOrderRequest struct {
	FeeRecordID int     `json:"fee_record_id" validate:"required,gt=0"`
	Amount      float64 `json:"amount" validate:"gte=0"`
}

// CreateOrderResponse feeds the hosted checkout UI
type CreateOrderResponse struct {
	OrderID     string  `json:"order_id"`
	Amount      int     `json:"amount"` // paise
	Currency    string  `json:"currency"`
	KeyID       string  `json:"key_id"`
	MemberName  string  `json:"member_name"`
	MemberPhone string  `json:"member_phone"`
	Balance     float64 `json:"balance"`
}

// VerifyPaymentRequest is posted by the client after the checkout callback
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// CancelOrderRequest marks a checkout dismissed by the user. Cancellation
// is not an error; the order is kept for audit but surfaced nowhere.
type CancelOrderRequest struct {
	RazorpayOrderID string `json:"razorpay_order_id" validate:"required"`
}

// PaymentStatusResponse tells the client whether online payment is available
type PaymentStatusResponse struct {
	Enabled bool   `json:"enabled"`
	KeyID   string `json:"key_id,omitempty"`
}

// OnlineTransactionFilter narrows admin transaction listings
type OnlineTransactionFilter struct {
	MemberID    int        `json:"member_id,omitempty"`
	FeeRecordID int        `json:"fee_record_id,omitempty"`
	Status      string     `json:"status,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
}

// OnlinePaymentSummary aggregates gateway activity for reports
type OnlinePaymentSummary struct {
	TotalTransactions  int     `json:"total_transactions"`
	SuccessfulPayments int     `json:"successful_payments"`
	FailedTransactions int     `json:"failed_transactions"`
	PendingOrders      int     `json:"pending_orders"`
	TotalCollected     float64 `json:"total_collected"`
}

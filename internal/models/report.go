package models

import "time"

// CollectionSummary aggregates payments collected in a date window
type CollectionSummary struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	PaymentCount   int       `json:"payment_count"`
	TotalCollected float64   `json:"total_collected"`
	TotalRefunded  float64   `json:"total_refunded"`
	NetCollected   float64   `json:"net_collected"`
	TotalTax       float64   `json:"total_tax"`
}

// ModeCollection is collections grouped by payment mode
type ModeCollection struct {
	Mode         PaymentMode `json:"mode"`
	PaymentCount int         `json:"payment_count"`
	Total        float64     `json:"total"`
}

// DuesRow is one outstanding record in the dues report
type DuesRow struct {
	FeeRecordID int       `json:"fee_record_id"`
	MemberID    int       `json:"member_id"`
	MemberName  string    `json:"member_name"`
	MemberPhone string    `json:"member_phone"`
	Batch       string    `json:"batch,omitempty"`
	FinalAmount float64   `json:"final_amount"`
	PaidAmount  float64   `json:"paid_amount"`
	Balance     float64   `json:"balance"`
	Status      FeeStatus `json:"status"`
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int       `json:"days_overdue"`
}

// DuesReport is the outstanding-balance report
type DuesReport struct {
	Rows             []DuesRow `json:"rows"`
	TotalOutstanding float64   `json:"total_outstanding"`
	RecordCount      int       `json:"record_count"`
}

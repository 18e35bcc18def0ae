package models

import "time"

// Reminder message types
const (
	ReminderTypeDue     = "due"
	ReminderTypeOverdue = "overdue"
)

// ReminderLog records one fee reminder SMS sent to a member
type ReminderLog struct {
	ID          int       `json:"id"`
	FeeRecordID int       `json:"fee_record_id"`
	MemberID    int       `json:"member_id"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	Status      string    `json:"status"` // sent, failed
	Error       string    `json:"error,omitempty"`
	SentByUser  int       `json:"sent_by_user"`
	CreatedAt   time.Time `json:"created_at"`
}

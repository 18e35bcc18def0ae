package models

import "time"

// Member is an enrolled student of the institute
type Member struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	GuardianName string     `json:"guardian_name,omitempty"`
	Batch        string     `json:"batch,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// CreateMemberRequest registers a new member
type CreateMemberRequest struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=10,max=13"`
	Email        string `json:"email" validate:"omitempty,email"`
	GuardianName string `json:"guardian_name"`
	Batch        string `json:"batch"`
}

// UpdateMemberRequest edits member contact details
type UpdateMemberRequest struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=10,max=13"`
	Email        string `json:"email" validate:"omitempty,email"`
	GuardianName string `json:"guardian_name"`
	Batch        string `json:"batch"`
	IsActive     *bool  `json:"is_active"`
}

package models

import "time"

// FeeCycle is the billing cycle of a fee structure
type FeeCycle string

const (
	CycleOnce       FeeCycle = "ONCE"
	CycleMonthly    FeeCycle = "MONTHLY"
	CycleQuarterly  FeeCycle = "QUARTERLY"
	CycleHalfYearly FeeCycle = "HALF_YEARLY"
	CycleYearly     FeeCycle = "YEARLY"
)

// TaxType says whether GST is embedded in the base amount, added on top, or absent
type TaxType string

const (
	TaxNone         TaxType = "NONE"
	TaxGSTInclusive TaxType = "GST_INCLUSIVE"
	TaxGSTExclusive TaxType = "GST_EXCLUSIVE"
)

// GSTSupplyType decides the CGST/SGST vs IGST split
type GSTSupplyType string

const (
	SupplyIntraState GSTSupplyType = "INTRA_STATE"
	SupplyInterState GSTSupplyType = "INTER_STATE"
)

// FeeLineItem is one labeled component of the base amount
type FeeLineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// InstallmentItem is one bracket of a fixed installment plan
type InstallmentItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// FeeStructure is an admin-authored billing template.
// At most one structure is current at a time; creating a new one demotes
// the previous current. Structures referenced by records are archived,
// never deleted.
type FeeStructure struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Amount         float64  `json:"amount"`
	Cycle          FeeCycle `json:"cycle"`
	LateFinePerDay float64  `json:"late_fine_per_day"`

	TaxType       TaxType       `json:"tax_type"`
	GSTRate       float64       `json:"gst_rate"`
	GSTSupplyType GSTSupplyType `json:"gst_supply_type,omitempty"`
	CessRate      float64       `json:"cess_rate,omitempty"`
	SACCode       string        `json:"sac_code,omitempty"`
	HSNCode       string        `json:"hsn_code,omitempty"`

	LineItems []FeeLineItem `json:"line_items,omitempty"`

	AllowInstallments  bool              `json:"allow_installments"`
	InstallmentCount   int               `json:"installment_count"`
	InstallmentAmounts []InstallmentItem `json:"installment_amounts,omitempty"`

	IsCurrent       bool       `json:"is_current"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	CreatedByUserID int        `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateFeeStructureRequest creates a new structure and makes it current
type CreateFeeStructureRequest struct {
	Name           string   `json:"name" validate:"required"`
	Amount         float64  `json:"amount" validate:"required,gt=0"`
	Cycle          FeeCycle `json:"cycle" validate:"required,oneof=ONCE MONTHLY QUARTERLY HALF_YEARLY YEARLY"`
	LateFinePerDay float64  `json:"late_fine_per_day" validate:"gte=0"`

	TaxType       TaxType       `json:"tax_type" validate:"omitempty,oneof=NONE GST_INCLUSIVE GST_EXCLUSIVE"`
	GSTRate       float64       `json:"gst_rate" validate:"gte=0,lte=100"`
	GSTSupplyType GSTSupplyType `json:"gst_supply_type" validate:"omitempty,oneof=INTRA_STATE INTER_STATE"`
	CessRate      float64       `json:"cess_rate" validate:"gte=0,lte=100"`
	SACCode       string        `json:"sac_code"`
	HSNCode       string        `json:"hsn_code"`

	LineItems []FeeLineItem `json:"line_items" validate:"dive"`

	AllowInstallments  bool              `json:"allow_installments"`
	InstallmentCount   int               `json:"installment_count" validate:"gte=0"`
	InstallmentAmounts []InstallmentItem `json:"installment_amounts" validate:"dive"`
}

// ReplacePreview is returned before a new structure replaces the current one,
// so the admin can see what the demotion touches.
type ReplacePreview struct {
	CurrentStructureID   *int    `json:"current_structure_id,omitempty"`
	CurrentStructureName string  `json:"current_structure_name,omitempty"`
	AffectedMembers      int     `json:"affected_members"`
	ActiveRecords        int     `json:"active_records"`
	OutstandingBalance   float64 `json:"outstanding_balance"`
}

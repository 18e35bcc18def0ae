package models

import "time"

// SystemSetting is a key-value runtime setting (gateway toggle, credentials,
// reminder templates). Settings edits take effect without restart.
type SystemSetting struct {
	ID           int       `json:"id"`
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	Description  string    `json:"description,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateSettingRequest changes one setting value
type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value" validate:"required"`
}

package models

import "time"

// TOTPSetupResponse carries the provisioning secret and QR for an authenticator app
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qr_code"` // data:image/png;base64,...
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPVerifyRequest submits a 6-digit code
type TOTPVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TOTPLoginRequest completes a 2FA login with the temp token from step 1
type TOTPLoginRequest struct {
	TempToken string `json:"temp_token" validate:"required"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
}

// TOTPAttempt logs a verification attempt for rate limiting and audit
type TOTPAttempt struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

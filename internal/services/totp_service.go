package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"time"

	"fee-backend/internal/auth"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer        = "FeeBackend"
	maxFailedAttempts = 5
	rateLimitWindow   = 15 * time.Minute
)

var (
	ErrTooManyAttempts = errors.New("too many failed attempts, please try again later")
	ErrNoTOTPSecret    = errors.New("2FA setup not initiated")
	ErrInvalidTOTPCode = errors.New("invalid verification code")
	ErrTOTPNotEnabled  = errors.New("2FA is not enabled")
	ErrInvalidPassword = errors.New("invalid password")
)

type TOTPService struct {
	userRepo *repositories.UserRepository
	totpRepo *repositories.TOTPRepository
}

func NewTOTPService(userRepo *repositories.UserRepository, totpRepo *repositories.TOTPRepository) *TOTPService {
	return &TOTPService{userRepo: userRepo, totpRepo: totpRepo}
}

// GenerateSetup creates a new TOTP secret and QR code for a user.
// The secret is stored immediately but 2FA stays off until the first
// successful verification.
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: user.Email,
	}, nil
}

// VerifyAndEnable verifies a TOTP code and enables 2FA for the user
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code, ipAddress string) error {
	if limited, err := s.isRateLimited(ctx, userID); err != nil {
		return err
	} else if limited {
		return ErrTooManyAttempts
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}

	if !totp.Validate(code, user.TOTPSecret) {
		s.totpRepo.RecordAttempt(ctx, userID, ipAddress, false)
		return ErrInvalidTOTPCode
	}
	s.totpRepo.RecordAttempt(ctx, userID, ipAddress, true)

	return s.userRepo.EnableTOTP(ctx, userID)
}

// Verify validates a TOTP code during login
func (s *TOTPService) Verify(ctx context.Context, userID int, code, ipAddress string) error {
	if limited, err := s.isRateLimited(ctx, userID); err != nil {
		return err
	} else if limited {
		return ErrTooManyAttempts
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled || user.TOTPSecret == "" {
		return ErrTOTPNotEnabled
	}

	if !totp.Validate(code, user.TOTPSecret) {
		s.totpRepo.RecordAttempt(ctx, userID, ipAddress, false)
		return ErrInvalidTOTPCode
	}
	s.totpRepo.RecordAttempt(ctx, userID, ipAddress, true)
	return nil
}

// Disable turns 2FA off after verifying the password and a current code
func (s *TOTPService) Disable(ctx context.Context, userID int, password, code string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidPassword
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.userRepo.DisableTOTP(ctx, userID)
}

func (s *TOTPService) isRateLimited(ctx context.Context, userID int) (bool, error) {
	failures, err := s.totpRepo.CountRecentFailures(ctx, userID, time.Now().Add(-rateLimitWindow))
	if err != nil {
		return false, err
	}
	return failures >= maxFailedAttempts, nil
}

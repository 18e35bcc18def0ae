package services

import (
	"context"
	"errors"
	"fmt"

	"fee-backend/internal/auth"
	"fee-backend/internal/cache"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

type UserService struct {
	userRepo   *repositories.UserRepository
	jwtManager *auth.JWTManager
	validate   *validator.Validate
}

func NewUserService(userRepo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		validate:   validator.New(),
	}
}

// Signup creates a staff account. The first account in an empty database
// becomes admin regardless of the requested role; everything after that
// defaults to staff unless an admin assigns otherwise.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	role := req.Role
	if count == 0 {
		role = "admin"
	} else if role == "" {
		role = "staff"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a session token. Accounts with 2FA
// enabled get a short-lived temp token instead; the caller must complete
// the TOTP step to obtain a full session.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Cached credential hash skips the bcrypt comparison on repeat logins
	if cachedID, ok := cache.GetCachedAuth(ctx, req.Email, req.Password); !ok || int(cachedID) != user.ID {
		if !auth.VerifyPassword(user.PasswordHash, req.Password) {
			return nil, ErrInvalidCredentials
		}
		cache.CacheAuth(ctx, req.Email, req.Password, int64(user.ID))
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if user.TOTPEnabled {
		tempToken, err := s.jwtManager.GenerateTempToken(user)
		if err != nil {
			return nil, fmt.Errorf("failed to generate temp token: %w", err)
		}
		return &models.LoginResponse{Token: tempToken, RequiresTOTP: true}, nil
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// IssueToken mints a full session token after a completed 2FA login
func (s *UserService) IssueToken(user *models.User) (*models.LoginResponse, error) {
	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) UpdateRole(ctx context.Context, id int, role string) error {
	switch role {
	case "admin", "accountant", "staff":
	default:
		return fmt.Errorf("invalid role: %s", role)
	}
	return s.userRepo.UpdateRole(ctx, id, role)
}

func (s *UserService) SetActive(ctx context.Context, id int, active bool) error {
	return s.userRepo.SetActive(ctx, id, active)
}

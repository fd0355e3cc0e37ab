package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/config"
	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/repository"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

// AuthService coordinates registration and login flows, with a failed
// login throttle in front of credential checks.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	limiter    *auth.LoginLimiter
	bcryptCost int
	resetTTL   time.Duration
	sleep      func(time.Duration)
}

// AuthDependencies encapsulates collaborator requirements.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	TokenManager      *auth.TokenManager
	LoginLimiter      *auth.LoginLimiter
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   deps.TokenManager,
		limiter:    deps.LoginLimiter,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		sleep:      time.Sleep,
	}
}

// Register creates a new guest account. Staff accounts are provisioned
// by an admin through the user management endpoints.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	if name == "" || email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(password) < 8 {
		return nil, "", time.Time{}, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CreateStaff provisions a staff account. Restricted to admins at the
// route level.
func (s *AuthService) CreateStaff(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) || role == domain.RoleUser {
		return nil, apperrors.NewValidationError("role must be a staff role", map[string]any{"role": role})
	}
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user. Consecutive failures incur a progressive
// delay and eventually a temporary lockout.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	locked, delay, err := s.limiter.Check(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if locked {
		return nil, "", time.Time{}, apperrors.NewTooManyRequests("account temporarily locked", nil)
	}
	if delay > 0 {
		s.sleep(delay)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			_ = s.limiter.RecordFailure(ctx, email)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		_ = s.limiter.RecordFailure(ctx, email)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	_ = s.limiter.RecordSuccess(ctx, email)

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// ChangePassword verifies the current password before updating the hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// RequestPasswordReset persists a reset token for the account's email.
// Unknown emails return the same nil result so the endpoint does not
// reveal which addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// Logout is a no-op for the stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

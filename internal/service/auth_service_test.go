package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/config"
	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/repository"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

type fakeResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	token.ID = token.Token
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *token
	return &clone, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	if token, ok := r.tokens[id]; ok {
		now := time.Now()
		token.UsedAt = &now
	}
	return nil
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	cfg := config.Config{}
	cfg.Auth.BcryptCost = 4
	cfg.Auth.PasswordResetTTLMinutes = 30

	users := &fakeUserRepo{users: make(map[string]*domain.User)}
	resets := &fakeResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		TokenManager:      auth.NewTokenManager("test-secret", 60),
		LoginLimiter:      auth.NewLoginLimiter(auth.NewMemoryAttemptStore(), auth.DefaultLoginLimiterConfig()),
	})
	svc.sleep = func(time.Duration) {}
	return svc, users, resets
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, "Gil Guest", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.Register(ctx, "Gil Again", "gil@example.com", "sup3rsecret")
	assert.Equal(t, "CONFLICT", errCode(t, err))

	logged, token, _, err := svc.Login(ctx, "gil@example.com", "sup3rsecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "", "a@x.io", "sup3rsecret")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, _, _, err = svc.Register(ctx, "A", "a@x.io", "short")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestLoginWrongPasswordThenLockout(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	_, _, _, err := svc.Register(ctx, "Gil", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, _, err = svc.Login(ctx, "gil@example.com", "wrong")
		assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	}

	// Even the correct password is refused while locked.
	_, _, _, err = svc.Login(ctx, "gil@example.com", "sup3rsecret")
	assert.Equal(t, "TOO_MANY_REQUESTS", errCode(t, err))
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	_, _, _, err := svc.Register(ctx, "Gil", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _, _, _ = svc.Login(ctx, "gil@example.com", "wrong")
	}
	_, _, _, err = svc.Login(ctx, "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	// Counter cleared: failures start from zero again.
	for i := 0; i < 4; i++ {
		_, _, _, err = svc.Login(ctx, "gil@example.com", "wrong")
		assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	}
}

func TestLoginUnknownEmailCountsAsFailure(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
		assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	}
	_, _, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
	assert.Equal(t, "TOO_MANY_REQUESTS", errCode(t, err))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	user, _, _, err := svc.Register(ctx, "Gil", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "an0thersecret")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "sup3rsecret", "an0thersecret"))

	_, _, _, err = svc.Login(ctx, "gil@example.com", "an0thersecret")
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	_, _, _, err := svc.Register(ctx, "Gil", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	// Unknown email yields no token and no error.
	token, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, token)

	token, err = svc.RequestPasswordReset(ctx, "gil@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "an0thersecret"))
	_, _, _, err = svc.Login(ctx, "gil@example.com", "an0thersecret")
	require.NoError(t, err)

	// A token is single-use.
	err = svc.ConfirmPasswordReset(ctx, token.Token, "thirdsecret99")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
}

func TestCreateStaffRoleRules(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, "Rae", "rae@example.com", "sup3rsecret", domain.RoleUser)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	staff, err := svc.CreateStaff(ctx, "Rae", "rae@example.com", "sup3rsecret", domain.RoleReception)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReception, staff.Role)
}

func TestSuspendedAccountCannotLogin(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	user, _, _, err := svc.Register(ctx, "Gil", "gil@example.com", "sup3rsecret")
	require.NoError(t, err)

	stored := users.users[user.ID]
	stored.Status = domain.UserStatusSuspended

	_, _, _, err = svc.Login(ctx, "gil@example.com", "sup3rsecret")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

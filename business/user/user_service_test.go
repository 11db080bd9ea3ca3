package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postalops/business/user"
	"postalops/domain"
	"postalops/internal/repository/postgres"
	"postalops/pkg/database"
	"postalops/pkg/utils"
)

type service interface {
	Register(ctx context.Context, u *domain.User) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, domain.User, error)
}

func newUserService(t *testing.T) service {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := database.NewTestConnection()
	require.NoError(t, err)
	return user.NewUserService(postgres.NewUserRepository(db))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, &domain.User{
		FullName: "Ana Ops",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, user.RoleOperator, created.Role)
	assert.Empty(t, created.Password)

	token, account, err := svc.Login(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", account.Email)
	assert.Empty(t, account.Password)

	claims, err := utils.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.RoleOperator, claims["role"])
	assert.Equal(t, float64(account.ID), claims["user_id"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.User{FullName: "Ana", Email: "ana@example.com", Password: "pw-one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &domain.User{FullName: "Other", Email: "ana@example.com", Password: "pw-two"})
	assert.EqualError(t, err, "email already registered")
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.Register(context.Background(), &domain.User{
		FullName: "Ana", Email: "role@example.com", Password: "pw", Role: "superuser",
	})
	assert.EqualError(t, err, "invalid role")
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.User{FullName: "Ana", Email: "ana@example.com", Password: "right-pass"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.EqualError(t, err, "invalid email or password")
}

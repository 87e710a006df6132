package service

import (
	"testing"

	"pos-backoffice/internal/model"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/testdb"
	"pos-backoffice/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (AuthService, repository.UserRepository) {
	t.Helper()
	jwt.SetSecret("auth-test")
	t.Cleanup(func() { jwt.SetSecret("") })

	repo := repository.NewUserRepo(testdb.Open(t))
	u := &model.User{Email: "cashier@example.com", FullName: "Cashier", Role: model.RoleCashier, IsActive: true}
	require.NoError(t, u.SetPassword("correct-horse"))
	require.NoError(t, repo.Create(u))
	return NewAuthService(repo), repo
}

func TestLoginAndValidate(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login("cashier@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login("cashier@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.ElementsMatch(t, model.PrivilegesFor(model.RoleCashier), res.Privileges)

	v, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "cashier@example.com", v.User.Email)

	// a second login replaces the first session
	_, err = svc.Login("cashier@example.com", "correct-horse")
	require.NoError(t, err)
	_, err = svc.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestLoginInactive(t *testing.T) {
	svc, repo := newAuthService(t)

	u, err := repo.FindByEmail("cashier@example.com")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, repo.Update(u))

	_, err = svc.Login("cashier@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestSetPasswordRevokesSessions(t *testing.T) {
	svc, _ := newAuthService(t)

	res, err := svc.Login("cashier@example.com", "correct-horse")
	require.NoError(t, err)

	assert.Error(t, svc.SetPassword("cashier@example.com", "short"))
	assert.ErrorIs(t, svc.SetPassword("nobody@example.com", "long-enough-pw"), ErrUserNotFound)
	require.NoError(t, svc.SetPassword("cashier@example.com", "battery-staple"))

	_, err = svc.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = svc.Login("cashier@example.com", "battery-staple")
	assert.NoError(t, err)
}

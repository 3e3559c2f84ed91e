package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

func newTestAuthService(accounts *memoryAccounts, allowed *memoryAllowed, verifier IdentityVerifier) AuthService {
	return NewAuthService(accounts, allowed, plainHasher{}, fakeTokens{}, verifier)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccounts()
	svc := newTestAuthService(accounts, &memoryAllowed{}, nil)

	session, err := svc.Register(ctx, RegisterCommand{Name: "Alice", Email: " Alice@X.com", Password: "pw", Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", session.Account.Email)
	assert.Equal(t, identitydomain.RoleStudent, session.Account.Role)
	assert.Equal(t, "token-"+session.Account.ID, session.Token)

	login, err := svc.Login(ctx, LoginCommand{Email: "alice@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, login.Account.ID)
}

func TestRegisterRejectsDuplicateAndMissingFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, nil)

	_, err := svc.Register(ctx, RegisterCommand{Name: "Alice", Email: "alice@x.com", Password: "pw"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Register(ctx, RegisterCommand{Name: "Alice", Email: "alice@x.com", Password: "pw", Role: "admin"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Register(ctx, RegisterCommand{Name: "Alice", Email: "alice@x.com", Password: "pw", Role: "student"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterCommand{Name: "Alice 2", Email: "ALICE@x.com", Password: "pw", Role: "secretary"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestLoginDoesNotDistinguishFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, nil)
	_, err := svc.Register(ctx, RegisterCommand{Name: "Alice", Email: "alice@x.com", Password: "pw", Role: "student"})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, LoginCommand{Email: "bob@x.com", Password: "pw"})
	_, wrongErr := svc.Login(ctx, LoginCommand{Email: "alice@x.com", Password: "nope"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.True(t, apperr.Is(unknownErr, apperr.KindInvalidCredentials))

	_, err = svc.Login(ctx, LoginCommand{Email: "alice@x.com"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccounts(identitydomain.Account{ID: "acc-9", Email: "s@x.com", Role: identitydomain.RoleSecretary})
	svc := newTestAuthService(accounts, &memoryAllowed{}, nil)

	account, err := svc.Authenticate(ctx, "token-acc-9")
	require.NoError(t, err)
	assert.Equal(t, identitydomain.RoleSecretary, account.Role)

	for _, token := range []string{"", "garbage", "token-missing"} {
		_, err := svc.Authenticate(ctx, token)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), token)
	}
}

func TestRequireRole(t *testing.T) {
	svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, nil)
	student := identitydomain.Account{ID: "1", Role: identitydomain.RoleStudent}

	assert.NoError(t, svc.RequireRole(student, identitydomain.RoleStudent))
	assert.True(t, apperr.Is(svc.RequireRole(student, identitydomain.RoleSecretary), apperr.KindForbidden))
}

func TestFederatedLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, nil)
		_, err := svc.FederatedLogin(ctx, "id-token")
		assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	})

	t.Run("invalid token", func(t *testing.T) {
		svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, fakeVerifier{err: errors.New("bad signature")})
		_, err := svc.FederatedLogin(ctx, "id-token")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})

	t.Run("email not allowed", func(t *testing.T) {
		verifier := fakeVerifier{identity: VerifiedIdentity{Email: "eve@x.com", EmailVerified: true}}
		svc := newTestAuthService(newMemoryAccounts(), &memoryAllowed{}, verifier)
		_, err := svc.FederatedLogin(ctx, "id-token")
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
	})

	t.Run("provisions student on first login", func(t *testing.T) {
		accounts := newMemoryAccounts()
		allowed := &memoryAllowed{items: []identitydomain.AllowedEmail{{ID: "a1", Email: "carol@x.com"}}}
		verifier := fakeVerifier{identity: VerifiedIdentity{Email: "Carol@X.com", EmailVerified: true}}
		svc := newTestAuthService(accounts, allowed, verifier)

		first, err := svc.FederatedLogin(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, identitydomain.RoleStudent, first.Account.Role)
		assert.Equal(t, "carol", first.Account.Name)
		assert.NotEmpty(t, first.Account.PasswordHash)

		second, err := svc.FederatedLogin(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, first.Account.ID, second.Account.ID)
		assert.Len(t, accounts.byID, 1)
	})

	t.Run("existing account keeps its role", func(t *testing.T) {
		accounts := newMemoryAccounts(identitydomain.Account{ID: "sec", Email: "sec@x.com", Role: identitydomain.RoleSecretary})
		allowed := &memoryAllowed{items: []identitydomain.AllowedEmail{{ID: "a1", Email: "sec@x.com"}}}
		verifier := fakeVerifier{identity: VerifiedIdentity{Email: "sec@x.com", EmailVerified: true}}
		svc := newTestAuthService(accounts, allowed, verifier)

		session, err := svc.FederatedLogin(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, identitydomain.RoleSecretary, session.Account.Role)
	})
}

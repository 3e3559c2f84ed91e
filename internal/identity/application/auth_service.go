package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

// authService implements AuthService.
type authService struct {
	accounts AccountRepository
	allowed  AllowedEmailRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	verifier IdentityVerifier
	now      func() time.Time
}

// NewAuthService は認証サービスを生成する。verifier が nil の場合 Google ログインは無効になる。
func NewAuthService(accounts AccountRepository, allowed AllowedEmailRepository, hasher PasswordHasher, tokens TokenIssuer, verifier IdentityVerifier) AuthService {
	return &authService{
		accounts: accounts,
		allowed:  allowed,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" || strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" || strings.TrimSpace(cmd.Role) == "" {
		return nil, apperr.Validation("All fields are required")
	}
	role, err := identitydomain.ParseRole(cmd.Role)
	if err != nil {
		return nil, apperr.Validation("Invalid role")
	}
	email, err := identitydomain.NormalizeEmail(cmd.Email)
	if err != nil {
		return nil, apperr.Validation("Invalid email")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal(err, "Server error")
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	account := &identitydomain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	return s.issue(*account)
}

func (s *authService) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	if strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	// 存在しないユーザーとパスワード不一致は同じエラーにする
	email, err := identitydomain.NormalizeEmail(cmd.Email)
	if err != nil {
		return nil, apperr.InvalidCredentials()
	}
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(err, "Server error")
	}
	if err := s.hasher.Compare(account.PasswordHash, cmd.Password); err != nil {
		return nil, apperr.InvalidCredentials()
	}
	return s.issue(*account)
}

func (s *authService) FederatedLogin(ctx context.Context, idToken string) (*Session, error) {
	if s.verifier == nil {
		return nil, apperr.Unavailable("Google sign-in is not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, apperr.Validation("idToken is required")
	}
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Invalid Google token", Err: err}
	}
	if !identity.EmailVerified {
		return nil, apperr.Unauthenticated("Google account email is not verified")
	}
	email, err := identitydomain.NormalizeEmail(identity.Email)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid Google token")
	}

	allowed, err := s.allowed.Exists(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	if !allowed {
		return nil, apperr.Forbidden("Email is not allowed to sign in")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return s.issue(*account)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal(err, "Server error")
	}

	account, err = s.provisionStudent(ctx, email, identity.Name)
	if err != nil {
		return nil, err
	}
	return s.issue(*account)
}

// provisionStudent は Google ログイン初回のアカウントを作成する。
// パスワードはランダム値のハッシュで、パスワードログインには使えない。
func (s *authService) provisionStudent(ctx context.Context, email, name string) (*identitydomain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	hash, err := s.hasher.Hash(uuid.NewString() + uuid.NewString())
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	account := &identitydomain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         identitydomain.RoleStudent,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if !errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Internal(err, "Server error")
		}
		// 同時ログインで先に作成された場合はそちらを使う
		existing, findErr := s.accounts.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, apperr.Internal(findErr, "Server error")
		}
		return existing, nil
	}
	return account, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*identitydomain.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Unauthenticated("No token, authorization denied")
	}
	accountID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Token is not valid", Err: err}
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Token is not valid")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	return account, nil
}

func (s *authService) RequireRole(account identitydomain.Account, role identitydomain.Role) error {
	return RequireRole(account, role)
}

func (s *authService) issue(account identitydomain.Account) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID, s.now())
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// RequireRole は account が role を持たない場合 Forbidden を返す。
func RequireRole(account identitydomain.Account, role identitydomain.Role) error {
	if account.Role != role {
		return apperr.Forbidden("Access denied: %s role required", role)
	}
	return nil
}

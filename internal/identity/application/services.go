package application

import (
	"context"
	"time"

	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

// AccountRepository はアカウントの永続化ポート。
// Create はメール重複時に apperr.ErrDuplicate を、Find 系は未存在時に apperr.ErrNotFound を返す。
type AccountRepository interface {
	Create(ctx context.Context, account *identitydomain.Account) error
	FindByID(ctx context.Context, id string) (*identitydomain.Account, error)
	FindByEmail(ctx context.Context, email string) (*identitydomain.Account, error)
}

// AllowedEmailRepository は許可メールアドレス一覧の永続化ポート。
type AllowedEmailRepository interface {
	List(ctx context.Context) ([]identitydomain.AllowedEmail, error)
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, allowed *identitydomain.AllowedEmail) error
	Delete(ctx context.Context, id string) error
}

// PasswordHasher はパスワードのハッシュ化と照合を担う外部協調者。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// TokenIssuer はアカウントIDを埋め込んだ Bearer トークンを発行・検証する。
type TokenIssuer interface {
	Issue(accountID string, now time.Time) (string, time.Time, error)
	Parse(token string) (string, error)
}

// VerifiedIdentity は外部 IdP が検証済みとした利用者情報。
type VerifiedIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityVerifier は外部 IdP の ID トークンを検証する。
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (VerifiedIdentity, error)
}

// Session はログイン成功時に返すトークンとアカウント。
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   identitydomain.Account
}

// AuthService は認証系ユースケース。
type AuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*Session, error)
	Login(ctx context.Context, cmd LoginCommand) (*Session, error)
	FederatedLogin(ctx context.Context, idToken string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*identitydomain.Account, error)
	RequireRole(account identitydomain.Account, role identitydomain.Role) error
}

// AllowListService は許可メールアドレスの管理ユースケース。
type AllowListService interface {
	List(ctx context.Context) ([]identitydomain.AllowedEmail, error)
	Add(ctx context.Context, actor identitydomain.Account, email string) (*identitydomain.AllowedEmail, error)
	Remove(ctx context.Context, actor identitydomain.Account, id string) error
}

// RegisterCommand はパスワード登録の入力。
type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginCommand はパスワードログインの入力。
type LoginCommand struct {
	Email    string
	Password string
}

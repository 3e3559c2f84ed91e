package common

import (
	"context"
	"log"
	"net/http"
	"strings"

	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

type contextKey string

const authAccountContextKey contextKey = "authAccount"

// Authenticator は Bearer トークンからアカウントを解決する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identitydomain.Account, error)
}

// ContextWithAccount stores the authenticated account into context.
func ContextWithAccount(ctx context.Context, account identitydomain.Account) context.Context {
	return context.WithValue(ctx, authAccountContextKey, account)
}

// AccountFromContext extracts the authenticated account from context.
func AccountFromContext(ctx context.Context) (identitydomain.Account, bool) {
	account, ok := ctx.Value(authAccountContextKey).(identitydomain.Account)
	return account, ok
}

// RequireAuth は Authorization: Bearer ヘッダーを検証し、解決したアカウントを context に載せる。
// 権限の判定は各ユースケースが行う。
func RequireAuth(logger *log.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := auth.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				WriteError(logger, w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), *account)))
		})
	}
}

// BearerToken は Authorization ヘッダーからトークン部分を取り出す。形式が違う場合は空文字。
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sngm3741/mess-hall/api/internal/identity/application"
)

// CertsURL は Google が ID トークンの署名に使う公開鍵セット。
const CertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var issuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Verifier は Google Sign-In の ID トークンを検証する。
type Verifier struct {
	clientID string
	keyfunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
}

var _ application.IdentityVerifier = (*Verifier)(nil)

// NewRemoteVerifier は JWKS を取得し、以後バックグラウンドで更新する。
func NewRemoteVerifier(ctx context.Context, clientID, certsURL string, logger *log.Logger) (*Verifier, error) {
	jwks, err := keyfunc.Get(certsURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Printf("Google 公開鍵の更新に失敗: %v", err)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Google 公開鍵の取得に失敗: %w", err)
	}
	return &Verifier{clientID: clientID, keyfunc: jwks.Keyfunc, jwks: jwks}, nil
}

// NewVerifier は任意の鍵解決関数で Verifier を構築する。
func NewVerifier(clientID string, kf jwt.Keyfunc) *Verifier {
	return &Verifier{clientID: clientID, keyfunc: kf}
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (application.VerifiedIdentity, error) {
	if err := ctx.Err(); err != nil {
		return application.VerifiedIdentity{}, err
	}
	c := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, c, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil || !token.Valid {
		return application.VerifiedIdentity{}, fmt.Errorf("ID トークンの検証に失敗: %w", err)
	}
	if !validIssuer(c.Issuer) {
		return application.VerifiedIdentity{}, fmt.Errorf("ID トークンの発行者が不正です: %s", c.Issuer)
	}
	if strings.TrimSpace(c.Email) == "" {
		return application.VerifiedIdentity{}, errors.New("ID トークンに email がありません")
	}
	return application.VerifiedIdentity{
		Email:         c.Email,
		EmailVerified: truthy(c.EmailVerified),
		Name:          c.Name,
	}, nil
}

// Close はバックグラウンドの公開鍵更新を止める。
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func validIssuer(iss string) bool {
	for _, candidate := range issuers {
		if iss == candidate {
			return true
		}
	}
	return false
}

// truthy は email_verified が bool と文字列のどちらで届いても解釈する。
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

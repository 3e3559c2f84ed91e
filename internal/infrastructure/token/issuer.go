package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer は HS256 で署名した Bearer トークンを扱う。subject はアカウント ID。
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("JWT の署名鍵が設定されていません")
	}
	if ttl <= 0 {
		return nil, errors.New("トークンの有効期間は正の値である必要があります")
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

func (i *Issuer) Issue(accountID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)
	c := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse は署名・有効期限・Issuer を検証してアカウント ID を返す。
func (i *Issuer) Parse(tokenString string) (string, error) {
	c := &claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("アクセストークンが無効です: %w", err)
	}
	if c.Subject == "" {
		return "", errors.New("アクセストークンに subject がありません")
	}
	return c.Subject, nil
}

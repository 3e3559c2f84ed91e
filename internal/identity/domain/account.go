package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Role はアカウントの権限区分。作成後に変更されることはない。
type Role string

const (
	RoleStudent   Role = "student"
	RoleSecretary Role = "secretary"
)

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleSecretary:
		return RoleSecretary, nil
	}
	return "", fmt.Errorf("role must be student or secretary")
}

func (r Role) String() string {
	return string(r)
}

// Account は認証済み主体を表す集約。PasswordHash は外部に出さない。
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func (a Account) Is(role Role) bool {
	return a.Role == role
}

func (a Account) IsSecretary() bool {
	return a.Role == RoleSecretary
}

// NormalizeEmail は前後空白を除去して小文字化し、アドレス形式を検証する。
func NormalizeEmail(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("email is invalid")
	}
	return trimmed, nil
}

package auth

import (
	"time"

	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// googleLoginRequest は Google Identity Services の credential 名でも受け付ける。
type googleLoginRequest struct {
	IDToken    string `json:"idToken"`
	Credential string `json:"credential"`
}

type allowedEmailRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type verifyResponse struct {
	Status string       `json:"status"`
	User   userResponse `json:"user"`
}

type allowedEmailResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type allowedEmailDeletedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func toUserResponse(account identitydomain.Account) userResponse {
	return userResponse{ID: account.ID, Name: account.Name, Email: account.Email, Role: account.Role.String()}
}

func toSessionResponse(session *identityapp.Session) sessionResponse {
	return sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: toUserResponse(session.Account)}
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
)

func (h *Handler) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		if err := common.Validate(req, "All fields are required"); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.auth.Register(ctx, identityapp.RegisterCommand{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, toSessionResponse(session))
	}
}

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		if err := common.Validate(req, "Email and password are required"); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.auth.Login(ctx, identityapp.LoginCommand{Email: req.Email, Password: req.Password})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toSessionResponse(session))
	}
}

func (h *Handler) googleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleLoginRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		token := strings.TrimSpace(req.IDToken)
		if token == "" {
			token = strings.TrimSpace(req.Credential)
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.auth.FederatedLogin(ctx, token)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toSessionResponse(session))
	}
}

func (h *Handler) verifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := common.AccountFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, r, apperr.Unauthenticated("No token, authorization denied"))
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, verifyResponse{Status: "ok", User: toUserResponse(account)})
	}
}

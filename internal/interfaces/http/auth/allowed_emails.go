package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
)

func (h *Handler) allowedEmailListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.allowList.List(ctx)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		resp := make([]allowedEmailResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, allowedEmailResponse{ID: item.ID, Email: item.Email})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

func (h *Handler) allowedEmailCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := common.AccountFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, r, apperr.Unauthenticated("No token, authorization denied"))
			return
		}
		var req allowedEmailRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		// 入力検証と権限判定はサービス側で行う
		allowed, err := h.allowList.Add(ctx, account, req.Email)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, allowedEmailResponse{ID: allowed.ID, Email: allowed.Email})
	}
}

func (h *Handler) allowedEmailDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := common.AccountFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, r, apperr.Unauthenticated("No token, authorization denied"))
			return
		}
		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := h.allowList.Remove(ctx, account, id); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, allowedEmailDeletedResponse{Message: "Email removed", ID: id})
	}
}

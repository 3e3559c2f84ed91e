package mess

import (
	"context"
	"net/http"

	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

func (h *Handler) menuGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		menu, err := h.menu.Get(ctx)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toMenuResponse(*menu))
	}
}

func (h *Handler) menuUpsertHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req menuRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		// 学生への更新通知を同期で送るので MenuEmailTimeout を使う
		ctx, cancel := context.WithTimeout(r.Context(), common.MenuEmailTimeout)
		defer cancel()

		menu, err := h.menu.Upsert(ctx, actor, messapp.UpsertMenuCommand{Days: req.Days, Timings: req.Timings})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, menuEnvelope{Message: "Menu updated", Menu: toMenuResponse(*menu)})
	}
}

func (h *Handler) menuEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.MenuEmailTimeout)
		defer cancel()

		sent, err := h.menu.Email(ctx, actor)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, menuEmailResponse{Message: "Menu emailed", Recipients: sent})
	}
}

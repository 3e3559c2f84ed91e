package mess

import (
	"context"
	"net/http"

	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

func (h *Handler) noticeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req noticeRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		notice, err := h.notices.Create(ctx, actor, messapp.CreateNoticeCommand{Title: req.Title, Message: req.Message})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, noticeEnvelope{Message: "Notice created and sent", Notice: toNoticeResponse(*notice)})
	}
}

func (h *Handler) noticeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		notices, err := h.notices.List(ctx, actor)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		resp := make([]noticeResponse, 0, len(notices))
		for _, notice := range notices {
			resp = append(resp, toNoticeResponse(notice))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

package mess

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

func (h *Handler) pollCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req pollRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		poll, err := h.polls.Create(ctx, actor, messapp.CreatePollCommand{
			Question:  req.Question,
			Options:   req.Options,
			PollType:  req.PollType,
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, pollEnvelope{Message: "Poll created successfully", Poll: toPollResponse(*poll)})
	}
}

func (h *Handler) pollListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		polls, err := h.polls.List(ctx)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		resp := make([]pollResponse, 0, len(polls))
		for _, poll := range polls {
			resp = append(resp, toPollResponse(poll))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

func (h *Handler) pollVoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req voteRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		if err := common.Validate(req, "Poll ID is required"); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		poll, err := h.polls.Vote(ctx, actor, req.PollID, req.SelectedOptions)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, pollEnvelope{Message: "Vote recorded successfully", Poll: toPollResponse(*poll)})
	}
}

func (h *Handler) pollDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := h.polls.Delete(ctx, actor, chi.URLParam(r, "id")); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.MessageResponse{Message: "Poll deleted successfully"})
	}
}

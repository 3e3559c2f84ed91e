package mess

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

func (h *Handler) complaintCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req complaintRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		complaint, err := h.complaints.Submit(ctx, actor, messapp.SubmitComplaintCommand{Text: req.Text, ImageURL: req.ImageURL})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, complaintEnvelope{
			Message:   "Complaint submitted successfully",
			Complaint: toComplaintResponse(*complaint),
		})
	}
}

func (h *Handler) complaintListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.complaints.List(ctx, actor)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toComplaintResponses(items))
	}
}

func (h *Handler) complaintListMineHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.complaints.ListMine(ctx, actor)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toComplaintResponses(items))
	}
}

func (h *Handler) complaintStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req complaintStatusRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		complaint, err := h.complaints.SetStatus(ctx, actor, chi.URLParam(r, "id"), req.Status)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, complaintEnvelope{
			Message:   "Complaint updated successfully",
			Complaint: toComplaintResponse(*complaint),
		})
	}
}

func (h *Handler) complaintReplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req replyRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		complaint, err := h.complaints.Reply(ctx, actor, chi.URLParam(r, "id"), req.Message)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, complaintEnvelope{
			Message:   "Reply added successfully",
			Complaint: toComplaintResponse(*complaint),
		})
	}
}

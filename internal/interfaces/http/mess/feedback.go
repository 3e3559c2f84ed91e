package mess

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

func (h *Handler) feedbackCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var req feedbackRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		feedback, err := h.feedback.Submit(ctx, actor, messapp.SubmitFeedbackCommand{
			MealType: req.MealType,
			Rating:   req.Rating,
			Comment:  req.Description,
		})
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, feedbackEnvelope{
			Message:  "Feedback submitted successfully",
			Feedback: toFeedbackResponse(*feedback),
		})
	}
}

func (h *Handler) feedbackListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.feedback.ListAll(ctx, actor)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toFeedbackResponses(items))
	}
}

func (h *Handler) feedbackListByMealHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.feedback.ListByMealType(ctx, actor, chi.URLParam(r, "mealType"))
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toFeedbackResponses(items))
	}
}

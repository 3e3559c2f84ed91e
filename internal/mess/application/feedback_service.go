package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type feedbackService struct {
	repo      FeedbackRepository
	directory AccountDirectory
	location  *time.Location
	now       func() time.Time
}

// NewFeedbackService の location は「1日1件」の暦日を決めるサーバー現地時刻。
func NewFeedbackService(repo FeedbackRepository, directory AccountDirectory, location *time.Location) FeedbackService {
	if location == nil {
		location = time.Local
	}
	return &feedbackService{repo: repo, directory: directory, location: location, now: time.Now}
}

const duplicateFeedbackMessage = "You have already submitted feedback for this meal today."

func (s *feedbackService) Submit(ctx context.Context, actor identitydomain.Account, cmd SubmitFeedbackCommand) (*messdomain.Feedback, error) {
	if strings.TrimSpace(cmd.MealType) == "" || cmd.Rating == 0 {
		return nil, apperr.Validation("Meal type and rating are required")
	}
	mealType, err := messdomain.ParseMealType(cmd.MealType)
	if err != nil {
		return nil, err
	}
	now := s.now()
	feedback, err := messdomain.NewFeedback(actor.ID, mealType, cmd.Rating, cmd.Comment, now, s.location)
	if err != nil {
		return nil, err
	}

	start, end := messdomain.DayWindow(now, s.location)
	exists, err := s.repo.ExistsBetween(ctx, actor.ID, mealType, start, end)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	if exists {
		return nil, apperr.Conflict(duplicateFeedbackMessage)
	}
	// 同時送信で確認をすり抜けた場合は一意インデックスが弾く
	if err := s.repo.Create(ctx, feedback); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict(duplicateFeedbackMessage)
		}
		return nil, apperr.Internal(err, "Server error")
	}
	feedback.Student = personOf(actor)
	return feedback, nil
}

func (s *feedbackService) ListAll(ctx context.Context, _ identitydomain.Account) ([]messdomain.Feedback, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return s.resolve(ctx, items)
}

func (s *feedbackService) ListByMealType(ctx context.Context, actor identitydomain.Account, mealType string) ([]messdomain.Feedback, error) {
	if err := identityapp.RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return nil, err
	}
	meal, err := messdomain.ParseMealType(mealType)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.FindByMealType(ctx, meal)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return s.resolve(ctx, items)
}

func (s *feedbackService) resolve(ctx context.Context, items []messdomain.Feedback) ([]messdomain.Feedback, error) {
	ids := make([]string, 0, len(items))
	for _, f := range items {
		ids = append(ids, f.StudentID)
	}
	found, err := lookupPeople(ctx, s.directory, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	for i := range items {
		items[i].Student = found.person(items[i].StudentID)
	}
	return items, nil
}

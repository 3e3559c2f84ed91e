package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

func newTestFeedbackService(repo *memoryFeedback, now time.Time) *feedbackService {
	svc := NewFeedbackService(repo, newDirectory(), time.UTC).(*feedbackService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestFeedbackOncePerMealPerDay(t *testing.T) {
	ctx := context.Background()
	repo := &memoryFeedback{}
	morning := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newTestFeedbackService(repo, morning)

	fb, err := svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch", Rating: 4, Comment: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", fb.Day)
	assert.Equal(t, "Alice", fb.Student.Name)

	svc.now = func() time.Time { return morning.Add(10 * time.Hour) }
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch", Rating: 2})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "dinner", Rating: 2})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, bob, SubmitFeedbackCommand{MealType: "lunch", Rating: 5})
	require.NoError(t, err)

	svc.now = func() time.Time { return morning.Add(24 * time.Hour) }
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch", Rating: 3})
	require.NoError(t, err)
}

func TestFeedbackUniqueIndexClosesRace(t *testing.T) {
	ctx := context.Background()
	repo := &memoryFeedback{skipCheck: true}
	svc := newTestFeedbackService(repo, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))

	_, err := svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "breakfast", Rating: 4})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "breakfast", Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Len(t, repo.items, 1)
}

func TestFeedbackValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestFeedbackService(&memoryFeedback{}, time.Now())

	_, err := svc.Submit(ctx, alice, SubmitFeedbackCommand{Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "supper", Rating: 3})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch", Rating: 9})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFeedbackListing(t *testing.T) {
	ctx := context.Background()
	svc := newTestFeedbackService(&memoryFeedback{}, time.Now())
	_, err := svc.Submit(ctx, alice, SubmitFeedbackCommand{MealType: "lunch", Rating: 4})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, bob, SubmitFeedbackCommand{MealType: "dinner", Rating: 2})
	require.NoError(t, err)

	all, err := svc.ListAll(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListByMealType(ctx, alice, "lunch")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	lunch, err := svc.ListByMealType(ctx, secretary, "lunch")
	require.NoError(t, err)
	require.Len(t, lunch, 1)
	assert.Equal(t, messdomain.MealLunch, lunch[0].MealType)
	assert.Equal(t, "alice@x.com", lunch[0].Student.Email)
}

package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

func ParseMealType(value string) (MealType, error) {
	switch MealType(strings.ToLower(strings.TrimSpace(value))) {
	case MealBreakfast:
		return MealBreakfast, nil
	case MealLunch:
		return MealLunch, nil
	case MealDinner:
		return MealDinner, nil
	}
	return "", apperr.Validation("Invalid meal type")
}

// DayLayout は Feedback.Day の書式。
const DayLayout = "2006-01-02"

// Feedback は学生・食事種別・暦日ごとに1件だけ存在する評価。
type Feedback struct {
	ID        string
	StudentID string
	Student   *Person
	MealType  MealType
	Rating    int
	Comment   string
	Day       string
	CreatedAt time.Time
}

func NewFeedback(studentID string, mealType MealType, rating int, comment string, now time.Time, loc *time.Location) (*Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("Rating must be between 1 and 5")
	}
	return &Feedback{
		StudentID: studentID,
		MealType:  mealType,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Day:       DayKey(now, loc),
		CreatedAt: now,
	}, nil
}

// DayWindow は t を含むサーバー現地時刻の暦日 [00:00:00.000, 23:59:59.999] を返す。
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

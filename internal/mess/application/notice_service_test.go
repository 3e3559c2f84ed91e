package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

func TestNoticeCreateBroadcastsToStudents(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewNoticeService(&memoryNotices{}, newDirectory(), notifier, nil)

	notice, err := svc.Create(ctx, secretary, CreateNoticeCommand{Title: "Holiday", Message: "Mess closed Friday"})
	require.NoError(t, err)
	assert.Equal(t, "Sam", notice.Creator.Name)
	assert.Equal(t, []string{"Holiday"}, notifier.notices)
	assert.Equal(t, 2, notifier.noticeTargets)
}

func TestNoticeRules(t *testing.T) {
	ctx := context.Background()
	svc := NewNoticeService(&memoryNotices{}, newDirectory(), &recordingNotifier{}, nil)

	_, err := svc.Create(ctx, alice, CreateNoticeCommand{Title: "x", Message: "y"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Create(ctx, secretary, CreateNoticeCommand{Title: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestNoticeListNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewNoticeService(&memoryNotices{}, newDirectory(), &recordingNotifier{}, nil).(*noticeService)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	_, err := svc.Create(ctx, secretary, CreateNoticeCommand{Title: "first", Message: "m"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, deputy, CreateNoticeCommand{Title: "second", Message: "m"})
	require.NoError(t, err)

	notices, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "second", notices[0].Title)
	assert.Equal(t, "Dee", notices[0].Creator.Name)
}

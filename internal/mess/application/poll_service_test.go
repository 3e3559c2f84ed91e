package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

func newTestPollService() (*pollService, *memoryPolls) {
	repo := &memoryPolls{}
	svc := NewPollService(repo, newDirectory()).(*pollService)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("opt-%d", n)
	}
	return svc, repo
}

func createPoll(t *testing.T, svc PollService, options ...string) *messdomain.Poll {
	t.Helper()
	poll, err := svc.Create(context.Background(), secretary, CreatePollCommand{Question: "Sunday special?", Options: options})
	require.NoError(t, err)
	return poll
}

func TestPollVoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B")
	assert.Equal(t, messdomain.PollSingle, poll.Type)

	_, err := svc.Vote(ctx, alice, poll.ID, []string{"B"})
	require.NoError(t, err)

	polls, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, 0, polls[0].Options[0].Votes)
	assert.Equal(t, 1, polls[0].Options[1].Votes)
	assert.Len(t, polls[0].Voters, 1)
	assert.Equal(t, "Sam", polls[0].Creator.Name)
}

func TestPollVoteOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B")

	_, err := svc.Vote(ctx, alice, poll.ID, []string{"A"})
	require.NoError(t, err)

	_, err = svc.Vote(ctx, alice, poll.ID, []string{"B"})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyVoted))

	polls, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, polls[0].Options[0].Votes)
	assert.Equal(t, 0, polls[0].Options[1].Votes)
}

func TestPollVoteRejectsUnknownOption(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B")

	_, err := svc.Vote(ctx, alice, poll.ID, []string{"A", "Z"})
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Message, "Z")

	polls, err := svc.List(ctx)
	require.NoError(t, err)
	for _, opt := range polls[0].Options {
		assert.Zero(t, opt.Votes)
	}
	assert.Empty(t, polls[0].Voters)
}

func TestPollVoteByOptionIDAndMultipleSelections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B", "C")

	// single 型でも複数選択を受け付ける
	updated, err := svc.Vote(ctx, alice, poll.ID, []string{poll.Options[2].ID, "A", "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Options[0].Votes)
	assert.Equal(t, 0, updated.Options[1].Votes)
	assert.Equal(t, 1, updated.Options[2].Votes)
	assert.Equal(t, []int{2, 0}, updated.Voters[0].Selections)
}

func TestPollVoteNotFoundAndExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()

	_, err := svc.Vote(ctx, alice, "missing", []string{"A"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	expiresAt := time.Now().Add(time.Hour)
	poll, err := svc.Create(ctx, secretary, CreatePollCommand{Question: "Q", Options: []string{"A", "B"}, ExpiresAt: &expiresAt})
	require.NoError(t, err)
	svc.now = func() time.Time { return expiresAt.Add(time.Second) }
	_, err = svc.Vote(ctx, alice, poll.ID, []string{"A"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPollCreateAndDeleteRules(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestPollService()

	_, err := svc.Create(ctx, alice, CreatePollCommand{Question: "Q", Options: []string{"A", "B"}})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Create(ctx, secretary, CreatePollCommand{Question: "Q", Options: []string{"A", "B"}, PollType: "ranked"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	poll := createPoll(t, svc, "A", "B")

	assert.True(t, apperr.Is(svc.Delete(ctx, alice, poll.ID), apperr.KindForbidden))
	assert.True(t, apperr.Is(svc.Delete(ctx, deputy, poll.ID), apperr.KindForbidden))
	assert.True(t, apperr.Is(svc.Delete(ctx, secretary, "missing"), apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, secretary, poll.ID))
	assert.Empty(t, repo.items)
}

func TestPollConcurrentVotesFromSameUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B")

	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Vote(ctx, alice, poll.ID, []string{"A"})
			switch {
			case err == nil:
				accepted.Add(1)
			case apperr.Is(err, apperr.KindAlreadyVoted):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(19), rejected.Load())

	polls, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, polls[0].Options[0].Votes)
	assert.Len(t, polls[0].Voters, 1)
}

func TestPollConcurrentVotesFromDifferentUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestPollService()
	poll := createPoll(t, svc, "A", "B")

	const voters = 25
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := identitydomain.Account{ID: fmt.Sprintf("student-%d", i), Role: identitydomain.RoleStudent}
			_, err := svc.Vote(ctx, voter, poll.ID, []string{"B"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	polls, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, voters, polls[0].Options[1].Votes)
	assert.Len(t, polls[0].Voters, voters)
}

package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type pollService struct {
	repo      PollRepository
	directory AccountDirectory
	newID     func() string
	now       func() time.Time
}

func NewPollService(repo PollRepository, directory AccountDirectory) PollService {
	return &pollService{repo: repo, directory: directory, newID: uuid.NewString, now: time.Now}
}

func (s *pollService) Create(ctx context.Context, actor identitydomain.Account, cmd CreatePollCommand) (*messdomain.Poll, error) {
	if !actor.IsSecretary() {
		return nil, apperr.Forbidden("Only secretaries can create polls")
	}
	pollType, err := messdomain.ParsePollType(cmd.PollType)
	if err != nil {
		return nil, err
	}
	poll, err := messdomain.NewPoll(cmd.Question, cmd.Options, pollType, cmd.ExpiresAt, actor.ID, s.now().UTC(), s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	poll.Creator = personOf(actor)
	return poll, nil
}

func (s *pollService) List(ctx context.Context) ([]messdomain.Poll, error) {
	polls, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	ids := make([]string, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.CreatedBy)
	}
	found, err := lookupPeople(ctx, s.directory, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	for i := range polls {
		polls[i].Creator = found.person(polls[i].CreatedBy)
	}
	return polls, nil
}

// Vote は1人1回の投票を記録する。事前確認は利用者向けのエラーを返すためで、
// 二重投票の防止自体はリポジトリの条件付き更新が担う。
func (s *pollService) Vote(ctx context.Context, actor identitydomain.Account, pollID string, selections []string) (*messdomain.Poll, error) {
	poll, err := s.repo.FindByID(ctx, pollID)
	if err != nil {
		return nil, s.translate(err)
	}
	if poll.HasVoted(actor.ID) {
		return nil, apperr.AlreadyVoted()
	}
	now := s.now().UTC()
	if poll.Expired(now) {
		return nil, apperr.Validation("Poll has expired")
	}
	indices, err := poll.ResolveSelections(selections)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.RecordVote(ctx, poll.ID, messdomain.Voter{UserID: actor.ID, Selections: indices, VotedAt: now})
	if err != nil {
		return nil, s.translate(err)
	}
	return updated, nil
}

func (s *pollService) Delete(ctx context.Context, actor identitydomain.Account, pollID string) error {
	if !actor.IsSecretary() {
		return apperr.Forbidden("Only secretaries can delete polls")
	}
	poll, err := s.repo.FindByID(ctx, pollID)
	if err != nil {
		return s.translate(err)
	}
	if poll.CreatedBy != actor.ID {
		return apperr.Forbidden("You can only delete polls you created")
	}
	if err := s.repo.Delete(ctx, poll.ID); err != nil {
		return s.translate(err)
	}
	return nil
}

func (s *pollService) translate(err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.NotFound("Poll not found")
	case errors.Is(err, ErrVoterExists):
		return apperr.AlreadyVoted()
	}
	return apperr.Internal(err, "Server error")
}

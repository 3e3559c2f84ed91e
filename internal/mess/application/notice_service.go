package application

import (
	"context"
	"log"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type noticeService struct {
	repo      NoticeRepository
	directory AccountDirectory
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
}

func NewNoticeService(repo NoticeRepository, directory AccountDirectory, notifier Notifier, logger *log.Logger) NoticeService {
	return &noticeService{repo: repo, directory: directory, notifier: notifier, logger: logger, now: time.Now}
}

// Create は保存後に全学生への配信をキューへ積む。配信結果は待たない。
func (s *noticeService) Create(ctx context.Context, actor identitydomain.Account, cmd CreateNoticeCommand) (*messdomain.Notice, error) {
	if !actor.IsSecretary() {
		return nil, apperr.Forbidden("Only secretaries can create notices")
	}
	notice, err := messdomain.NewNotice(cmd.Title, cmd.Message, actor.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	notice.Creator = personOf(actor)

	students := recipients(ctx, s.directory, s.logger, identitydomain.RoleStudent)
	s.notifier.NoticePublished(ctx, *notice, students)
	return notice, nil
}

func (s *noticeService) List(ctx context.Context, _ identitydomain.Account) ([]messdomain.Notice, error) {
	notices, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	ids := make([]string, 0, len(notices))
	for _, n := range notices {
		ids = append(ids, n.CreatedBy)
	}
	found, err := lookupPeople(ctx, s.directory, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	for i := range notices {
		notices[i].Creator = found.person(notices[i].CreatedBy)
	}
	return notices, nil
}

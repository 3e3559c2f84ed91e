package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type complaintService struct {
	repo      ComplaintRepository
	directory AccountDirectory
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
}

func NewComplaintService(repo ComplaintRepository, directory AccountDirectory, notifier Notifier, logger *log.Logger) ComplaintService {
	return &complaintService{repo: repo, directory: directory, notifier: notifier, logger: logger, now: time.Now}
}

func (s *complaintService) Submit(ctx context.Context, actor identitydomain.Account, cmd SubmitComplaintCommand) (*messdomain.Complaint, error) {
	complaint, err := messdomain.NewComplaint(actor.ID, cmd.Text, cmd.ImageURL, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	complaint.Student = personOf(actor)

	secretaries := recipients(ctx, s.directory, s.logger, identitydomain.RoleSecretary)
	s.notifier.ComplaintSubmitted(ctx, *complaint, actor, secretaries)
	return complaint, nil
}

func (s *complaintService) List(ctx context.Context, actor identitydomain.Account) ([]messdomain.Complaint, error) {
	if err := identityapp.RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return nil, err
	}
	complaints, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return s.resolve(ctx, complaints)
}

func (s *complaintService) ListMine(ctx context.Context, actor identitydomain.Account) ([]messdomain.Complaint, error) {
	complaints, err := s.repo.FindByStudent(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return s.resolve(ctx, complaints)
}

func (s *complaintService) SetStatus(ctx context.Context, actor identitydomain.Account, id, status string) (*messdomain.Complaint, error) {
	to, err := messdomain.ParseComplaintStatus(status)
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := complaint.CheckTransition(actor, to); err != nil {
		return nil, err
	}
	complaint.ApplyStatus(to, s.now().UTC())

	updated, err := s.repo.UpdateStatus(ctx, complaint.ID, complaint.Status, complaint.ResolvedAt)
	if err != nil {
		return nil, s.translate(err)
	}
	return s.resolveOne(ctx, *updated)
}

func (s *complaintService) Reply(ctx context.Context, actor identitydomain.Account, id, message string) (*messdomain.Complaint, error) {
	reply, err := messdomain.NewReply(actor, message, s.now().UTC())
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.AppendReply(ctx, id, reply)
	if err != nil {
		return nil, s.translate(err)
	}

	if reply.Author.Kind == messdomain.AuthorSecretary {
		student, err := s.directory.FindByID(ctx, updated.StudentID)
		if err != nil {
			logf(s.logger, "返信通知先の学生取得に失敗 complaint=%s err=%v", updated.ID, err)
		} else {
			s.notifier.ComplaintReplied(ctx, *updated, reply, *student)
		}
	}
	return s.resolveOne(ctx, *updated)
}

func (s *complaintService) find(ctx context.Context, id string) (*messdomain.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err)
	}
	return complaint, nil
}

func (s *complaintService) translate(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("Complaint not found")
	}
	return apperr.Internal(err, "Server error")
}

func (s *complaintService) resolveOne(ctx context.Context, complaint messdomain.Complaint) (*messdomain.Complaint, error) {
	resolved, err := s.resolve(ctx, []messdomain.Complaint{complaint})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// resolve は提出者と返信者の名前をアカウントから補完する。
func (s *complaintService) resolve(ctx context.Context, complaints []messdomain.Complaint) ([]messdomain.Complaint, error) {
	ids := make([]string, 0, len(complaints))
	for _, c := range complaints {
		ids = append(ids, c.StudentID)
		for _, r := range c.Replies {
			ids = append(ids, r.Author.ID)
		}
	}
	found, err := lookupPeople(ctx, s.directory, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	for i := range complaints {
		complaints[i].Student = found.person(complaints[i].StudentID)
		for j := range complaints[i].Replies {
			author := &complaints[i].Replies[j].Author
			if account, ok := found[author.ID]; ok {
				author.Name = account.Name
			}
		}
	}
	return complaints, nil
}

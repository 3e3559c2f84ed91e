package application

import (
	"context"
	"errors"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

type allowListService struct {
	repo AllowedEmailRepository
	now  func() time.Time
}

func NewAllowListService(repo AllowedEmailRepository) AllowListService {
	return &allowListService{repo: repo, now: time.Now}
}

func (s *allowListService) List(ctx context.Context) ([]identitydomain.AllowedEmail, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return items, nil
}

func (s *allowListService) Add(ctx context.Context, actor identitydomain.Account, email string) (*identitydomain.AllowedEmail, error) {
	if err := RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return nil, err
	}
	normalized, err := identitydomain.NormalizeEmail(email)
	if err != nil {
		return nil, apperr.Validation("Email is required")
	}
	allowed := &identitydomain.AllowedEmail{Email: normalized, CreatedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, allowed); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("Email already allowed")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	return allowed, nil
}

func (s *allowListService) Remove(ctx context.Context, actor identitydomain.Account, id string) error {
	if err := RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("Email not found")
		}
		return apperr.Internal(err, "Server error")
	}
	return nil
}

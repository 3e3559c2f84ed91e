package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type menuService struct {
	repo      MenuRepository
	directory AccountDirectory
	notifier  Notifier
	renderer  MenuRenderer
	logger    *log.Logger
	now       func() time.Time
}

func NewMenuService(repo MenuRepository, directory AccountDirectory, notifier Notifier, renderer MenuRenderer, logger *log.Logger) MenuService {
	return &menuService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		renderer:  renderer,
		logger:    logger,
		now:       time.Now,
	}
}

// Get は保存済みの献立を返す。未作成の場合は空の献立と既定の時間帯を返す。
func (s *menuService) Get(ctx context.Context) (*messdomain.Menu, error) {
	menu, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			empty := messdomain.EmptyMenu()
			return &empty, nil
		}
		return nil, apperr.Internal(err, "Server error")
	}
	return menu, nil
}

// Upsert は days を丸ごと置き換える。同時編集は後勝ち。
func (s *menuService) Upsert(ctx context.Context, actor identitydomain.Account, cmd UpsertMenuCommand) (*messdomain.Menu, error) {
	if !actor.IsSecretary() {
		return nil, apperr.Forbidden("Only secretaries can update menus")
	}
	days, err := messdomain.NormalizeDays(cmd.Days)
	if err != nil {
		return nil, err
	}
	var timings *messdomain.MealSlots
	if cmd.Timings != nil {
		slots, err := messdomain.NormalizeSlots(cmd.Timings)
		if err != nil {
			return nil, apperr.Validation("Timings must have at most 3 entries")
		}
		timings = &slots
	}

	menu, err := s.repo.Upsert(ctx, days, timings, actor.ID, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}

	students := recipients(ctx, s.directory, s.logger, identitydomain.RoleStudent)
	s.notifier.MenuUpdated(ctx, *menu, students)
	return menu, nil
}

// Email は現在の献立を PDF にして全学生へ送る。送信先の件数を返す。
func (s *menuService) Email(ctx context.Context, actor identitydomain.Account) (int, error) {
	if !actor.IsSecretary() {
		return 0, apperr.Forbidden("Only secretaries can email the menu")
	}
	menu, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	document, err := s.renderer.RenderMenu(*menu)
	if err != nil {
		return 0, apperr.Internal(err, "Failed to generate menu PDF")
	}
	students, err := s.directory.ListByRole(ctx, identitydomain.RoleStudent)
	if err != nil {
		return 0, apperr.Internal(err, "Server error")
	}
	if err := s.notifier.MenuDocument(ctx, document, students); err != nil {
		return 0, apperr.Internal(err, "Failed to email menu")
	}
	return len(students), nil
}

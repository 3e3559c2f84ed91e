package application

import (
	"context"
	"log"

	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

// people は一覧表示用にアカウントIDを Person へ解決する。
type people map[string]identitydomain.Account

func lookupPeople(ctx context.Context, directory AccountDirectory, ids []string) (people, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return people{}, nil
	}
	found, err := directory.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	return people(found), nil
}

// person はアカウントが見つからない場合でも ID だけは保持する。
func (p people) person(id string) *messdomain.Person {
	if id == "" {
		return nil
	}
	account, ok := p[id]
	if !ok {
		return &messdomain.Person{ID: id}
	}
	return &messdomain.Person{ID: account.ID, Name: account.Name, Email: account.Email}
}

func personOf(account identitydomain.Account) *messdomain.Person {
	return &messdomain.Person{ID: account.ID, Name: account.Name, Email: account.Email}
}

// recipients は通知先の一覧を取得する。失敗してもリクエストは失敗させない。
func recipients(ctx context.Context, directory AccountDirectory, logger *log.Logger, role identitydomain.Role) []identitydomain.Account {
	accounts, err := directory.ListByRole(ctx, role)
	if err != nil {
		logf(logger, "通知先 (%s) の取得に失敗: %v", role, err)
		return nil
	}
	return accounts
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}

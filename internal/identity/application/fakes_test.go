package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

type memoryAccounts struct {
	mu   sync.Mutex
	seq  int
	byID map[string]identitydomain.Account
	err  error
}

func newMemoryAccounts(accounts ...identitydomain.Account) *memoryAccounts {
	repo := &memoryAccounts{byID: make(map[string]identitydomain.Account)}
	for _, a := range accounts {
		repo.byID[a.ID] = a
	}
	return repo
}

func (m *memoryAccounts) Create(_ context.Context, account *identitydomain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == account.Email {
			return fmt.Errorf("accounts: %w", apperr.ErrDuplicate)
		}
	}
	m.seq++
	account.ID = fmt.Sprintf("acc-%d", m.seq)
	m.byID[account.ID] = *account
	return nil
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (*identitydomain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &a, nil
}

func (m *memoryAccounts) FindByEmail(_ context.Context, email string) (*identitydomain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.byID {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, apperr.ErrNotFound
}

type memoryAllowed struct {
	mu    sync.Mutex
	seq   int
	items []identitydomain.AllowedEmail
}

func (m *memoryAllowed) List(context.Context) ([]identitydomain.AllowedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]identitydomain.AllowedEmail(nil), m.items...), nil
}

func (m *memoryAllowed) Exists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAllowed) Create(_ context.Context, allowed *identitydomain.AllowedEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Email == allowed.Email {
			return apperr.ErrDuplicate
		}
	}
	m.seq++
	allowed.ID = fmt.Sprintf("allow-%d", m.seq)
	m.items = append(m.items, *allowed)
	return nil
}

func (m *memoryAllowed) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

// plainHasher はテスト用にハッシュを "hashed:" 接頭辞で表現する。
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (plainHasher) Compare(hash, plain string) error {
	if hash != "hashed:"+plain {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(accountID string, now time.Time) (string, time.Time, error) {
	return "token-" + accountID, now.Add(30 * 24 * time.Hour), nil
}

func (fakeTokens) Parse(token string) (string, error) {
	if !strings.HasPrefix(token, "token-") {
		return "", errors.New("invalid token")
	}
	return strings.TrimPrefix(token, "token-"), nil
}

type fakeVerifier struct {
	identity VerifiedIdentity
	err      error
}

func (f fakeVerifier) Verify(context.Context, string) (VerifiedIdentity, error) {
	return f.identity, f.err
}

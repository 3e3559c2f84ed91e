package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

var (
	alice     = identitydomain.Account{ID: "alice", Name: "Alice", Email: "alice@x.com", Role: identitydomain.RoleStudent}
	bob       = identitydomain.Account{ID: "bob", Name: "Bob", Email: "bob@x.com", Role: identitydomain.RoleStudent}
	secretary = identitydomain.Account{ID: "sec", Name: "Sam", Email: "sam@x.com", Role: identitydomain.RoleSecretary}
	deputy    = identitydomain.Account{ID: "dep", Name: "Dee", Email: "dee@x.com", Role: identitydomain.RoleSecretary}
)

type memoryDirectory struct {
	accounts []identitydomain.Account
	err      error
}

func newDirectory() *memoryDirectory {
	return &memoryDirectory{accounts: []identitydomain.Account{alice, bob, secretary, deputy}}
}

func (d *memoryDirectory) FindByID(_ context.Context, id string) (*identitydomain.Account, error) {
	for _, a := range d.accounts {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (d *memoryDirectory) FindByIDs(_ context.Context, ids []string) (map[string]identitydomain.Account, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make(map[string]identitydomain.Account)
	for _, id := range ids {
		for _, a := range d.accounts {
			if a.ID == id {
				out[id] = a
			}
		}
	}
	return out, nil
}

func (d *memoryDirectory) ListByRole(_ context.Context, role identitydomain.Role) ([]identitydomain.Account, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []identitydomain.Account
	for _, a := range d.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryComplaints struct {
	mu    sync.Mutex
	seq   int
	items []messdomain.Complaint
}

func (m *memoryComplaints) Create(_ context.Context, c *messdomain.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ID = fmt.Sprintf("c-%d", m.seq)
	m.items = append(m.items, cloneComplaint(*c))
	return nil
}

func (m *memoryComplaints) FindAll(context.Context) ([]messdomain.Complaint, error) {
	return m.filter(func(messdomain.Complaint) bool { return true }), nil
}

func (m *memoryComplaints) FindByStudent(_ context.Context, studentID string) ([]messdomain.Complaint, error) {
	return m.filter(func(c messdomain.Complaint) bool { return c.StudentID == studentID }), nil
}

func (m *memoryComplaints) filter(keep func(messdomain.Complaint) bool) []messdomain.Complaint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messdomain.Complaint, 0)
	for _, c := range m.items {
		if keep(c) {
			out = append(out, cloneComplaint(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memoryComplaints) FindByID(_ context.Context, id string) (*messdomain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.ID == id {
			c := cloneComplaint(c)
			return &c, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memoryComplaints) UpdateStatus(_ context.Context, id string, status messdomain.ComplaintStatus, resolvedAt *time.Time) (*messdomain.Complaint, error) {
	return m.mutate(id, func(c *messdomain.Complaint) {
		c.Status = status
		c.ResolvedAt = resolvedAt
	})
}

func (m *memoryComplaints) AppendReply(_ context.Context, id string, reply messdomain.Reply) (*messdomain.Complaint, error) {
	return m.mutate(id, func(c *messdomain.Complaint) {
		c.Replies = append(c.Replies, reply)
	})
}

func (m *memoryComplaints) mutate(id string, fn func(*messdomain.Complaint)) (*messdomain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			fn(&m.items[i])
			c := cloneComplaint(m.items[i])
			return &c, nil
		}
	}
	return nil, fmt.Errorf("complaint %s: %w", id, apperr.ErrNotFound)
}

func cloneComplaint(c messdomain.Complaint) messdomain.Complaint {
	c.Replies = append([]messdomain.Reply{}, c.Replies...)
	c.Student = nil
	return c
}

type memoryFeedback struct {
	mu        sync.Mutex
	skipCheck bool // 事前確認をすり抜けた同時送信を再現する
	seq       int
	items     []messdomain.Feedback
}

func (m *memoryFeedback) ExistsBetween(_ context.Context, studentID string, meal messdomain.MealType, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipCheck {
		return false, nil
	}
	for _, f := range m.items {
		if f.StudentID == studentID && f.MealType == meal && !f.CreatedAt.Before(start) && !f.CreatedAt.After(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryFeedback) Create(_ context.Context, f *messdomain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.StudentID == f.StudentID && existing.MealType == f.MealType && existing.Day == f.Day {
			return apperr.ErrDuplicate
		}
	}
	m.seq++
	f.ID = fmt.Sprintf("f-%d", m.seq)
	m.items = append(m.items, *f)
	return nil
}

func (m *memoryFeedback) FindAll(context.Context) ([]messdomain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messdomain.Feedback{}, m.items...), nil
}

func (m *memoryFeedback) FindByMealType(_ context.Context, meal messdomain.MealType) ([]messdomain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messdomain.Feedback, 0)
	for _, f := range m.items {
		if f.MealType == meal {
			out = append(out, f)
		}
	}
	return out, nil
}

type memoryMenu struct {
	mu   sync.Mutex
	menu *messdomain.Menu
	err  error
}

func (m *memoryMenu) Get(context.Context) (*messdomain.Menu, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.menu == nil {
		return nil, apperr.ErrNotFound
	}
	cp := cloneMenu(*m.menu)
	return &cp, nil
}

func (m *memoryMenu) Upsert(_ context.Context, days map[string]messdomain.MealSlots, timings *messdomain.MealSlots, updatedBy string, now time.Time) (*messdomain.Menu, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.menu == nil {
		m.menu = &messdomain.Menu{Timings: messdomain.DefaultTimings}
	}
	m.menu.Days = days
	if timings != nil {
		m.menu.Timings = *timings
	}
	m.menu.UpdatedAt = &now
	m.menu.UpdatedBy = updatedBy
	cp := cloneMenu(*m.menu)
	return &cp, nil
}

func cloneMenu(menu messdomain.Menu) messdomain.Menu {
	days := make(map[string]messdomain.MealSlots, len(menu.Days))
	for k, v := range menu.Days {
		days[k] = v
	}
	menu.Days = days
	return menu
}

type memoryPolls struct {
	mu    sync.Mutex
	seq   int
	items []messdomain.Poll
}

func (m *memoryPolls) Create(_ context.Context, p *messdomain.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	m.items = append(m.items, clonePoll(*p))
	return nil
}

func (m *memoryPolls) FindAll(context.Context) ([]messdomain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messdomain.Poll, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, clonePoll(p))
	}
	return out, nil
}

func (m *memoryPolls) FindByID(_ context.Context, id string) (*messdomain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.ID == id {
			p := clonePoll(p)
			return &p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// RecordVote は Mongo の条件付き更新と同じく、確認と追記を1つの排他区間で行う。
func (m *memoryPolls) RecordVote(_ context.Context, pollID string, voter messdomain.Voter) (*messdomain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != pollID {
			continue
		}
		if m.items[i].HasVoted(voter.UserID) {
			return nil, ErrVoterExists
		}
		m.items[i].ApplyVote(voter)
		p := clonePoll(m.items[i])
		return &p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *memoryPolls) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func clonePoll(p messdomain.Poll) messdomain.Poll {
	p.Options = append([]messdomain.Option{}, p.Options...)
	p.Voters = append([]messdomain.Voter{}, p.Voters...)
	return p
}

type memoryNotices struct {
	mu    sync.Mutex
	seq   int
	items []messdomain.Notice
}

func (m *memoryNotices) Create(_ context.Context, n *messdomain.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.ID = fmt.Sprintf("n-%d", m.seq)
	m.items = append([]messdomain.Notice{*n}, m.items...)
	return nil
}

func (m *memoryNotices) FindAll(context.Context) ([]messdomain.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messdomain.Notice{}, m.items...), nil
}

// recordingNotifier は呼び出し内容を記録する Notifier。
type recordingNotifier struct {
	mu              sync.Mutex
	submitted       []string
	secretaryEmails []string
	replied         []string
	menuUpdates     int
	documents       [][]byte
	documentErr     error
	notices         []string
	noticeTargets   int
}

func (r *recordingNotifier) ComplaintSubmitted(_ context.Context, c messdomain.Complaint, _ identitydomain.Account, secretaries []identitydomain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted = append(r.submitted, c.ID)
	for _, s := range secretaries {
		r.secretaryEmails = append(r.secretaryEmails, s.Email)
	}
}

func (r *recordingNotifier) ComplaintReplied(_ context.Context, c messdomain.Complaint, _ messdomain.Reply, student identitydomain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replied = append(r.replied, c.ID+":"+student.Email)
}

func (r *recordingNotifier) MenuUpdated(context.Context, messdomain.Menu, []identitydomain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menuUpdates++
}

func (r *recordingNotifier) MenuDocument(_ context.Context, document []byte, _ []identitydomain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.documentErr != nil {
		return r.documentErr
	}
	r.documents = append(r.documents, document)
	return nil
}

func (r *recordingNotifier) NoticePublished(_ context.Context, n messdomain.Notice, students []identitydomain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n.Title)
	r.noticeTargets += len(students)
}

type stubRenderer struct {
	err error
}

func (s stubRenderer) RenderMenu(menu messdomain.Menu) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(fmt.Sprintf("%%PDF rows=%d", len(menu.Rows()))), nil
}

var errStore = errors.New("store unavailable")

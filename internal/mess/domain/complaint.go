package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
)

type ComplaintStatus string

const (
	StatusPending  ComplaintStatus = "pending"
	StatusResolved ComplaintStatus = "resolved"
)

func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	switch ComplaintStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusResolved:
		return StatusResolved, nil
	}
	return "", apperr.Validation("Invalid status")
}

// Complaint は学生が提出した苦情。削除されず、返信と状態遷移でのみ変化する。
type Complaint struct {
	ID         string
	StudentID  string
	Student    *Person
	Text       string
	ImageURL   string
	Status     ComplaintStatus
	CreatedAt  time.Time
	ResolvedAt *time.Time
	Replies    []Reply
}

func NewComplaint(studentID, text, imageURL string, now time.Time) (*Complaint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Complaint text is required")
	}
	return &Complaint{
		StudentID: studentID,
		Text:      text,
		ImageURL:  strings.TrimSpace(imageURL),
		Status:    StatusPending,
		CreatedAt: now,
		Replies:   []Reply{},
	}, nil
}

// CheckTransition は actor が status を to へ変更できるか判定する。
// 秘書はどの方向にも変更でき、学生は自分の苦情を resolved にすることだけができる。
func (c Complaint) CheckTransition(actor identitydomain.Account, to ComplaintStatus) error {
	if actor.IsSecretary() {
		return nil
	}
	if actor.Role != identitydomain.RoleStudent {
		return apperr.Forbidden("Access denied")
	}
	if c.StudentID != actor.ID {
		return apperr.Forbidden("You can only update your own complaints")
	}
	if to == StatusPending {
		return apperr.Forbidden("Only secretaries can reopen complaints")
	}
	return nil
}

// ApplyStatus は状態を変更し解決日時を更新する。解決済みへの再設定では元の日時を保持する。
func (c *Complaint) ApplyStatus(to ComplaintStatus, now time.Time) {
	switch to {
	case StatusResolved:
		if c.Status != StatusResolved || c.ResolvedAt == nil {
			resolvedAt := now
			c.ResolvedAt = &resolvedAt
		}
	case StatusPending:
		c.ResolvedAt = nil
	}
	c.Status = to
}

type AuthorKind string

const (
	AuthorSecretary AuthorKind = "secretary"
	AuthorStudent   AuthorKind = "student"
)

// ReplyAuthor は返信者。Kind によって秘書か学生かを区別する。
type ReplyAuthor struct {
	Kind AuthorKind
	ID   string
	Name string
}

type Reply struct {
	Author    ReplyAuthor
	Message   string
	RepliedAt time.Time
}

func NewReply(actor identitydomain.Account, message string, now time.Time) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, apperr.Validation("Reply message cannot be empty")
	}
	kind := AuthorStudent
	if actor.IsSecretary() {
		kind = AuthorSecretary
	}
	return Reply{
		Author:    ReplyAuthor{Kind: kind, ID: actor.ID, Name: actor.Name},
		Message:   message,
		RepliedAt: now,
	}, nil
}

package mongo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountDocument は accounts コレクションのスキーマ。
type AccountDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type AllowedEmailDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ReplyDocument は苦情ドキュメントに埋め込まれる返信。
type ReplyDocument struct {
	AuthorKind string    `bson:"authorKind"`
	AuthorID   string    `bson:"authorId"`
	AuthorName string    `bson:"authorName,omitempty"`
	Message    string    `bson:"message"`
	RepliedAt  time.Time `bson:"repliedAt"`
}

type ComplaintDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	StudentID  string             `bson:"studentId"`
	Text       string             `bson:"text"`
	ImageURL   string             `bson:"imageUrl,omitempty"`
	Status     string             `bson:"status"`
	CreatedAt  time.Time          `bson:"createdAt"`
	ResolvedAt *time.Time         `bson:"resolvedAt,omitempty"`
	Replies    []ReplyDocument    `bson:"replies"`
}

// FeedbackDocument の day は (studentId, mealType, day) 一意インデックスの構成要素。
type FeedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	StudentID string             `bson:"studentId"`
	MealType  string             `bson:"mealType"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"description,omitempty"`
	Day       string             `bson:"day"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MenuDocument は _id "current" 固定の単一ドキュメント。
type MenuDocument struct {
	ID        string               `bson:"_id"`
	Days      map[string][3]string `bson:"days"`
	Timings   [3]string            `bson:"timings"`
	CreatedAt *time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt *time.Time           `bson:"updatedAt,omitempty"`
	UpdatedBy string               `bson:"updatedBy,omitempty"`
}

type PollOptionDocument struct {
	ID    string `bson:"id"`
	Text  string `bson:"text"`
	Votes int    `bson:"votes"`
}

type PollVoterDocument struct {
	UserID     string    `bson:"userId"`
	Selections []int     `bson:"selections"`
	VotedAt    time.Time `bson:"votedAt"`
}

type PollDocument struct {
	ID        primitive.ObjectID   `bson:"_id"`
	Question  string               `bson:"question"`
	PollType  string               `bson:"pollType"`
	Options   []PollOptionDocument `bson:"options"`
	CreatedBy string               `bson:"createdBy"`
	CreatedAt time.Time            `bson:"createdAt"`
	ExpiresAt *time.Time           `bson:"expiresAt,omitempty"`
	Voters    []PollVoterDocument  `bson:"voters"`
}

type NoticeDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	CreatedBy string             `bson:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// FailedNotificationDocument は再送待ちの通知。status は pending で作成される。
type FailedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Target      string             `bson:"target"`
	Payload     interface{}        `bson:"payload"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}

// objectID は不正な ID を未存在として扱う。
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, apperr.ErrNotFound)
	}
	return oid, nil
}

// translate はドライバのエラーを apperr の番兵エラーへ寄せる。
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%v: %w", err, apperr.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%v: %w", err, apperr.ErrDuplicate)
	}
	return err
}

func mapAccountDocument(doc AccountDocument) identitydomain.Account {
	return identitydomain.Account{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         identitydomain.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
	}
}

func mapComplaintDocument(doc ComplaintDocument) messdomain.Complaint {
	replies := make([]messdomain.Reply, 0, len(doc.Replies))
	for _, r := range doc.Replies {
		replies = append(replies, mapReplyDocument(r))
	}
	return messdomain.Complaint{
		ID:         doc.ID.Hex(),
		StudentID:  doc.StudentID,
		Text:       doc.Text,
		ImageURL:   doc.ImageURL,
		Status:     messdomain.ComplaintStatus(doc.Status),
		CreatedAt:  doc.CreatedAt,
		ResolvedAt: doc.ResolvedAt,
		Replies:    replies,
	}
}

func mapReplyDocument(doc ReplyDocument) messdomain.Reply {
	return messdomain.Reply{
		Author: messdomain.ReplyAuthor{
			Kind: messdomain.AuthorKind(doc.AuthorKind),
			ID:   doc.AuthorID,
			Name: doc.AuthorName,
		},
		Message:   doc.Message,
		RepliedAt: doc.RepliedAt,
	}
}

func replyDocument(reply messdomain.Reply) ReplyDocument {
	return ReplyDocument{
		AuthorKind: string(reply.Author.Kind),
		AuthorID:   reply.Author.ID,
		AuthorName: reply.Author.Name,
		Message:    reply.Message,
		RepliedAt:  reply.RepliedAt,
	}
}

func mapFeedbackDocument(doc FeedbackDocument) messdomain.Feedback {
	return messdomain.Feedback{
		ID:        doc.ID.Hex(),
		StudentID: doc.StudentID,
		MealType:  messdomain.MealType(doc.MealType),
		Rating:    doc.Rating,
		Comment:   doc.Comment,
		Day:       doc.Day,
		CreatedAt: doc.CreatedAt,
	}
}

// mapMenuDocument は欠けている曜日を空欄で補う。
func mapMenuDocument(doc MenuDocument) messdomain.Menu {
	menu := messdomain.EmptyMenu()
	for key, slots := range doc.Days {
		menu.Days[key] = messdomain.MealSlots(slots)
	}
	menu.Timings = messdomain.MealSlots(doc.Timings)
	menu.UpdatedAt = doc.UpdatedAt
	menu.UpdatedBy = doc.UpdatedBy
	return menu
}

func menuDays(days map[string]messdomain.MealSlots) map[string][3]string {
	out := make(map[string][3]string, len(days))
	for key, slots := range days {
		out[key] = [3]string(slots)
	}
	return out
}

func mapPollDocument(doc PollDocument) messdomain.Poll {
	options := make([]messdomain.Option, 0, len(doc.Options))
	for _, o := range doc.Options {
		options = append(options, messdomain.Option{ID: o.ID, Text: o.Text, Votes: o.Votes})
	}
	voters := make([]messdomain.Voter, 0, len(doc.Voters))
	for _, v := range doc.Voters {
		voters = append(voters, messdomain.Voter{UserID: v.UserID, Selections: v.Selections, VotedAt: v.VotedAt})
	}
	return messdomain.Poll{
		ID:        doc.ID.Hex(),
		Question:  doc.Question,
		Type:      messdomain.PollType(doc.PollType),
		Options:   options,
		CreatedBy: doc.CreatedBy,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
		Voters:    voters,
	}
}

func mapNoticeDocument(doc NoticeDocument) messdomain.Notice {
	return messdomain.Notice{
		ID:        doc.ID.Hex(),
		Title:     doc.Title,
		Message:   doc.Message,
		CreatedBy: doc.CreatedBy,
		CreatedAt: doc.CreatedAt,
	}
}

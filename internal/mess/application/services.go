package application

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

// ErrVoterExists は投票台帳に同じ利用者が既に存在する場合にリポジトリが返す。
var ErrVoterExists = errors.New("voter already recorded")

// ComplaintRepository は苦情の永続化ポート。一覧は作成日時の降順。
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *messdomain.Complaint) error
	FindAll(ctx context.Context) ([]messdomain.Complaint, error)
	FindByStudent(ctx context.Context, studentID string) ([]messdomain.Complaint, error)
	FindByID(ctx context.Context, id string) (*messdomain.Complaint, error)
	UpdateStatus(ctx context.Context, id string, status messdomain.ComplaintStatus, resolvedAt *time.Time) (*messdomain.Complaint, error)
	AppendReply(ctx context.Context, id string, reply messdomain.Reply) (*messdomain.Complaint, error)
}

// FeedbackRepository は評価の永続化ポート。Create は (学生, 食事, 日) 重複時に apperr.ErrDuplicate を返す。
type FeedbackRepository interface {
	ExistsBetween(ctx context.Context, studentID string, mealType messdomain.MealType, start, end time.Time) (bool, error)
	Create(ctx context.Context, feedback *messdomain.Feedback) error
	FindAll(ctx context.Context) ([]messdomain.Feedback, error)
	FindByMealType(ctx context.Context, mealType messdomain.MealType) ([]messdomain.Feedback, error)
}

// MenuRepository は単一の週間献立ドキュメントを扱う。timings が nil の場合は既存値を保持する。
type MenuRepository interface {
	Get(ctx context.Context) (*messdomain.Menu, error)
	Upsert(ctx context.Context, days map[string]messdomain.MealSlots, timings *messdomain.MealSlots, updatedBy string, now time.Time) (*messdomain.Menu, error)
}

// PollRepository は投票の永続化ポート。
// RecordVote は「未投票の確認・台帳追記・票の加算」を1回の条件付き更新で行う。
type PollRepository interface {
	Create(ctx context.Context, poll *messdomain.Poll) error
	FindAll(ctx context.Context) ([]messdomain.Poll, error)
	FindByID(ctx context.Context, id string) (*messdomain.Poll, error)
	RecordVote(ctx context.Context, pollID string, voter messdomain.Voter) (*messdomain.Poll, error)
	Delete(ctx context.Context, id string) error
}

// NoticeRepository はお知らせの永続化ポート。一覧は作成日時の降順。
type NoticeRepository interface {
	Create(ctx context.Context, notice *messdomain.Notice) error
	FindAll(ctx context.Context) ([]messdomain.Notice, error)
}

// AccountDirectory は通知先や作成者の解決に使うアカウント参照ポート。
type AccountDirectory interface {
	FindByID(ctx context.Context, id string) (*identitydomain.Account, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]identitydomain.Account, error)
	ListByRole(ctx context.Context, role identitydomain.Role) ([]identitydomain.Account, error)
}

// Notifier は通知配信の外部協調者。MenuDocument 以外は失敗を呼び出し元へ返さない。
type Notifier interface {
	ComplaintSubmitted(ctx context.Context, complaint messdomain.Complaint, student identitydomain.Account, secretaries []identitydomain.Account)
	ComplaintReplied(ctx context.Context, complaint messdomain.Complaint, reply messdomain.Reply, student identitydomain.Account)
	MenuUpdated(ctx context.Context, menu messdomain.Menu, students []identitydomain.Account)
	MenuDocument(ctx context.Context, document []byte, students []identitydomain.Account) error
	NoticePublished(ctx context.Context, notice messdomain.Notice, students []identitydomain.Account)
}

// MenuRenderer は献立表を PDF に変換する。
type MenuRenderer interface {
	RenderMenu(menu messdomain.Menu) ([]byte, error)
}

// ComplaintService は苦情ワークフロー。
type ComplaintService interface {
	Submit(ctx context.Context, actor identitydomain.Account, cmd SubmitComplaintCommand) (*messdomain.Complaint, error)
	List(ctx context.Context, actor identitydomain.Account) ([]messdomain.Complaint, error)
	ListMine(ctx context.Context, actor identitydomain.Account) ([]messdomain.Complaint, error)
	SetStatus(ctx context.Context, actor identitydomain.Account, id, status string) (*messdomain.Complaint, error)
	Reply(ctx context.Context, actor identitydomain.Account, id, message string) (*messdomain.Complaint, error)
}

// FeedbackService は食事評価のユースケース。
type FeedbackService interface {
	Submit(ctx context.Context, actor identitydomain.Account, cmd SubmitFeedbackCommand) (*messdomain.Feedback, error)
	ListAll(ctx context.Context, actor identitydomain.Account) ([]messdomain.Feedback, error)
	ListByMealType(ctx context.Context, actor identitydomain.Account, mealType string) ([]messdomain.Feedback, error)
}

// MenuService は週間献立のユースケース。
type MenuService interface {
	Get(ctx context.Context) (*messdomain.Menu, error)
	Upsert(ctx context.Context, actor identitydomain.Account, cmd UpsertMenuCommand) (*messdomain.Menu, error)
	Email(ctx context.Context, actor identitydomain.Account) (int, error)
}

// PollService は投票のユースケース。
type PollService interface {
	Create(ctx context.Context, actor identitydomain.Account, cmd CreatePollCommand) (*messdomain.Poll, error)
	List(ctx context.Context) ([]messdomain.Poll, error)
	Vote(ctx context.Context, actor identitydomain.Account, pollID string, selections []string) (*messdomain.Poll, error)
	Delete(ctx context.Context, actor identitydomain.Account, pollID string) error
}

// NoticeService はお知らせのユースケース。
type NoticeService interface {
	Create(ctx context.Context, actor identitydomain.Account, cmd CreateNoticeCommand) (*messdomain.Notice, error)
	List(ctx context.Context, actor identitydomain.Account) ([]messdomain.Notice, error)
}

type SubmitComplaintCommand struct {
	Text     string
	ImageURL string
}

type SubmitFeedbackCommand struct {
	MealType string
	Rating   int
	Comment  string
}

// UpsertMenuCommand の Timings が nil の場合、保存済みの時間帯を変更しない。
type UpsertMenuCommand struct {
	Days    map[string][]string
	Timings []string
}

type CreatePollCommand struct {
	Question  string
	Options   []string
	PollType  string
	ExpiresAt *time.Time
}

type CreateNoticeCommand struct {
	Title   string
	Message string
}

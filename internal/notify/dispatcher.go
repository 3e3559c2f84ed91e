package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	netmail "net/mail"
	"strings"
	"sync"
	"time"

	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/mail"
	"github.com/sngm3741/mess-hall/api/internal/mess/application"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

const (
	SubjectComplaint = "New Complaint Received"
	SubjectReply     = "Reply to Your Complaint"
	SubjectMenu      = "Menu Updated"
	SubjectMenuPDF   = "Mess Menu Timetable"
	noticePrefix     = "Notice: "

	menuFilename = "menu.pdf"
	dateLayout   = "02 Jan 2006 15:04"
)

// ErrQueueFull はお知らせ配信キューが満杯の場合に記録されるエラー。
var ErrQueueFull = errors.New("notification queue is full")

// ErrClosed は停止後に配信を依頼された場合のエラー。
var ErrClosed = errors.New("dispatcher is closed")

// Poster は秘書チャンネルへの投稿を担う。
type Poster interface {
	Post(ctx context.Context, content string) error
}

// Failure は再送しきれなかった通知1件分。
type Failure struct {
	Target   string
	Payload  map[string]any
	Error    string
	Attempts int
	At       time.Time
}

// FailureRecorder は失敗した通知を保存する。
type FailureRecorder interface {
	Record(ctx context.Context, failure Failure) error
}

type Config struct {
	Mailer    mail.Sender
	Channel   Poster
	Failures  FailureRecorder
	Logger    *log.Logger
	Location  *time.Location
	Attempts  int
	Delay     time.Duration
	QueueSize int
	Workers   int
}

// Dispatcher は通知の配信を担う。苦情・返信・献立更新は呼び出し中に送り切り、
// お知らせはキューに積んでワーカーが配信する。どちらも失敗は呼び出し元へ返さない。
type Dispatcher struct {
	mailer   mail.Sender
	channel  Poster
	failures FailureRecorder
	logger   *log.Logger
	location *time.Location
	attempts int
	delay    time.Duration
	workers  int
	now      func() time.Time

	jobs    chan job
	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

var _ application.Notifier = (*Dispatcher)(nil)

type job struct {
	event      string
	msg        mail.Message
	recipients []identitydomain.Account
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{
		mailer:   cfg.Mailer,
		channel:  cfg.Channel,
		failures: cfg.Failures,
		logger:   cfg.Logger,
		location: cfg.Location,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		workers:  cfg.Workers,
		now:      time.Now,
		jobs:     make(chan job, cfg.QueueSize),
	}
}

// Start はキューのワーカーを起動する。2回目以降の呼び出しは何もしない。
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Close は新規の受付を止め、キューに残った配信が終わるか ctx が終了するまで待つ。
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()

	if !started {
		for j := range d.jobs {
			d.recordJob(j, ErrClosed, 0)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("通知キューの停止待ちを中断: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(context.Background(), j)
	}
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.recordJob(j, ErrClosed, 0)
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.logf("通知キューが満杯のため %s を配信できません", j.event)
		d.recordJob(j, ErrQueueFull, 0)
	}
}

func (d *Dispatcher) ComplaintSubmitted(ctx context.Context, complaint messdomain.Complaint, student identitydomain.Account, secretaries []identitydomain.Account) {
	body, err := render("complaint", map[string]any{
		"Student":  displayName(student),
		"Text":     complaint.Text,
		"ImageURL": complaint.ImageURL,
		"Date":     d.date(complaint.CreatedAt),
	})
	if err != nil {
		d.logf("苦情通知の本文生成に失敗: %v", err)
		return
	}
	d.deliver(ctx, job{
		event:      "complaint_submitted",
		msg:        mail.Message{Subject: SubjectComplaint, HTML: body},
		recipients: secretaries,
	})

	if d.channel == nil {
		return
	}
	text := fmt.Sprintf("**%s** から新しい苦情が届きました。\n> %s", displayName(student), oneLine(complaint.Text))
	if complaint.ImageURL != "" {
		text += "\n" + complaint.ImageURL
	}
	attempts, err := d.retry(ctx, func() error { return d.channel.Post(ctx, text) })
	if err != nil {
		d.logf("Discord通知の送信に失敗: %v", err)
		d.record(Failure{
			Target:   "discord",
			Payload:  map[string]any{"event": "complaint_submitted", "complaintId": complaint.ID, "content": text},
			Error:    err.Error(),
			Attempts: attempts,
		})
	}
}

func (d *Dispatcher) ComplaintReplied(ctx context.Context, complaint messdomain.Complaint, reply messdomain.Reply, student identitydomain.Account) {
	body, err := render("reply", map[string]any{
		"Student":   displayName(student),
		"Secretary": reply.Author.Name,
		"Message":   reply.Message,
		"Date":      d.date(reply.RepliedAt),
	})
	if err != nil {
		d.logf("返信通知の本文生成に失敗: %v", err)
		return
	}
	d.deliver(ctx, job{
		event:      "complaint_replied",
		msg:        mail.Message{Subject: SubjectReply, HTML: body},
		recipients: []identitydomain.Account{student},
	})
}

func (d *Dispatcher) MenuUpdated(ctx context.Context, menu messdomain.Menu, students []identitydomain.Account) {
	updated := d.now()
	if menu.UpdatedAt != nil {
		updated = *menu.UpdatedAt
	}
	body, err := render("menu", map[string]any{
		"Timings": menu.Timings,
		"Rows":    menu.Rows(),
		"Date":    d.date(updated),
	})
	if err != nil {
		d.logf("献立更新通知の本文生成に失敗: %v", err)
		return
	}
	d.deliver(ctx, job{
		event:      "menu_updated",
		msg:        mail.Message{Subject: SubjectMenu, HTML: body},
		recipients: students,
	})
}

// MenuDocument は献立 PDF を全学生へ送る。送れなかった宛先があればまとめてエラーを返す。
func (d *Dispatcher) MenuDocument(ctx context.Context, document []byte, students []identitydomain.Account) error {
	body, err := render("menu_document", nil)
	if err != nil {
		return err
	}
	return d.deliver(ctx, job{
		event: "menu_document",
		msg: mail.Message{
			Subject:     SubjectMenuPDF,
			HTML:        body,
			Attachments: []mail.Attachment{{Filename: menuFilename, ContentType: "application/pdf", Content: document}},
		},
		recipients: students,
	})
}

// NoticePublished は配信をキューへ積むだけで、結果を待たない。
func (d *Dispatcher) NoticePublished(_ context.Context, notice messdomain.Notice, students []identitydomain.Account) {
	body, err := render("notice", map[string]any{
		"Title":   notice.Title,
		"Message": notice.Message,
		"Date":    d.date(notice.CreatedAt),
	})
	if err != nil {
		d.logf("お知らせ通知の本文生成に失敗: %v", err)
		return
	}
	d.enqueue(job{
		event:      "notice_published",
		msg:        mail.Message{Subject: noticePrefix + notice.Title, HTML: body},
		recipients: students,
	})
}

// deliver は宛先ごとに再試行付きで送信し、失敗した宛先を記録する。
func (d *Dispatcher) deliver(ctx context.Context, j job) error {
	var errs []error
	for _, recipient := range j.recipients {
		address := strings.TrimSpace(recipient.Email)
		if address == "" {
			continue
		}
		msg := j.msg
		msg.To = netmail.Address{Name: recipient.Name, Address: address}

		attempts, err := d.retry(ctx, func() error { return d.mailer.Send(ctx, msg) })
		if err == nil {
			continue
		}
		d.logf("メール送信に失敗 (%s → %s): %v", j.event, address, err)
		d.record(Failure{
			Target:   "email",
			Payload:  map[string]any{"event": j.event, "to": address, "subject": msg.Subject},
			Error:    err.Error(),
			Attempts: attempts,
		})
		errs = append(errs, fmt.Errorf("%s: %w", address, err))
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) retry(ctx context.Context, send func() error) (int, error) {
	var lastErr error
	for i := 1; i <= d.attempts; i++ {
		if lastErr = send(); lastErr == nil {
			return i, nil
		}
		if i == d.attempts {
			return i, lastErr
		}
		if d.delay > 0 {
			select {
			case <-ctx.Done():
				return i, fmt.Errorf("%v: %w", lastErr, ctx.Err())
			case <-time.After(d.delay):
			}
		}
	}
	return d.attempts, lastErr
}

func (d *Dispatcher) recordJob(j job, cause error, attempts int) {
	for _, recipient := range j.recipients {
		d.record(Failure{
			Target:   "email",
			Payload:  map[string]any{"event": j.event, "to": recipient.Email, "subject": j.msg.Subject},
			Error:    cause.Error(),
			Attempts: attempts,
		})
	}
}

func (d *Dispatcher) record(f Failure) {
	if d.failures == nil {
		return
	}
	f.At = d.now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.failures.Record(ctx, f); err != nil {
		d.logf("failed_notifications への保存に失敗: %v", err)
	}
}

func (d *Dispatcher) date(t time.Time) string {
	if t.IsZero() {
		t = d.now()
	}
	return t.In(d.location).Format(dateLayout)
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

func displayName(account identitydomain.Account) string {
	if name := strings.TrimSpace(account.Name); name != "" {
		return name
	}
	return account.Email
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

package mail

import (
	"context"
	"log"
	"sync"
)

// LogSender は SendGrid 未設定時に使う。送信内容をログへ出し、Sent に保持する。
type LogSender struct {
	logger *log.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if s.logger != nil {
		s.logger.Printf("メール送信 (ログのみ): to=%s subject=%q attachments=%d", msg.To.Address, msg.Subject, len(msg.Attachments))
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

// Notice は秘書が配信するお知らせ。追記のみ。
type Notice struct {
	ID        string
	Title     string
	Message   string
	CreatedBy string
	Creator   *Person
	CreatedAt time.Time
}

func NewNotice(title, message, creatorID string, now time.Time) (*Notice, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, apperr.Validation("Title and message are required")
	}
	return &Notice{Title: title, Message: message, CreatedBy: creatorID, CreatedAt: now}, nil
}

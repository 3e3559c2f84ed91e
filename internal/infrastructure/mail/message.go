package mail

import (
	"context"
	"net/mail"
)

// Message は1通分のメール。宛先は1件ずつ送る。
type Message struct {
	To          mail.Address
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sender はメール送信の実装を差し替えるためのインターフェース。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

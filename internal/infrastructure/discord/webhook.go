package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// maxContentLength は Discord のメッセージ本文の上限。
const maxContentLength = 2000

// Webhook は秘書チャンネルの Incoming Webhook へ投稿する。
type Webhook struct {
	session *discordgo.Session
	id      string
	token   string
}

// NewWebhook は https://discord.com/api/webhooks/{id}/{token} 形式の URL から Webhook を構築する。
// client が nil の場合は discordgo の既定クライアントを使う。
func NewWebhook(rawURL string, client *http.Client) (*Webhook, error) {
	id, token, err := ParseWebhookURL(rawURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord セッションの作成に失敗: %w", err)
	}
	if client != nil {
		session.Client = client
	}
	return &Webhook{session: session, id: id, token: token}, nil
}

func ParseWebhookURL(rawURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("webhook URL の解析に失敗: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook URL の形式が不正です: %s", rawURL)
}

func (w *Webhook) Post(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if runes := []rune(content); len(runes) > maxContentLength {
		content = string(runes[:maxContentLength-1]) + "…"
	}
	params := &discordgo.WebhookParams{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if _, err := w.session.WebhookExecute(w.id, w.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord webhook への投稿に失敗: %w", err)
	}
	return nil
}

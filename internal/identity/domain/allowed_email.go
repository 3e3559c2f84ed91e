package domain

import "time"

// AllowedEmail は Google ログインでの自動登録を許可するメールアドレス。
type AllowedEmail struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

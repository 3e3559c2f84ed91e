package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Collections は Mongo のコレクション名。
type Collections struct {
	Accounts            string
	AllowedEmails       string
	Complaints          string
	Feedback            string
	Menus               string
	Polls               string
	Notices             string
	FailedNotifications string
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string
	MongoURI       string
	MongoDatabase  string
	Timeout        time.Duration
	Timezone       string
	ServerLog      *log.Logger
	Collections    Collections
	JWTSecret      []byte
	JWTIssuer      string
	TokenTTL       time.Duration
	GoogleClientID string
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	DiscordWebhook string
	SentryDSN      string
	Environment    string
	RetryAttempts  int
	RetryDelay     time.Duration
	QueueSize      int
	Workers        int
	AllowedOrigins []string
}

// Load reads the dotenv file and environment variables and returns a fully populated Config.
// JWT_SECRET が未設定の場合は起動できない。
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ServerLog.Printf("loaded config: addr=%q db=%q timezone=%q mail=%t discord=%t sentry=%t",
		cfg.Addr, cfg.MongoDatabase, cfg.Timezone, cfg.SendGridAPIKey != "", cfg.DiscordWebhook != "", cfg.SentryDSN != "")
	return cfg
}

// LoadStore は JWT 等を必要としないコマンド向けに、接続先とコレクション名を含む Config を返す。
func LoadStore() (Config, error) {
	v, err := read()
	if err != nil {
		return Config{}, err
	}
	return build(v), nil
}

func load() (Config, error) {
	v, err := read()
	if err != nil {
		return Config{}, err
	}
	cfg := build(v)
	if len(cfg.JWTSecret) == 0 {
		return Config{}, fmt.Errorf("JWT_SECRET must be configured")
	}
	return cfg, nil
}

func read() (*viper.Viper, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	// ファイルが無ければ環境変数だけで動かす
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: %s の読み込みに失敗: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: %s を確認できません: %w", envFile, err)
	}
	return newViper(), nil
}

func build(v *viper.Viper) Config {
	return Config{
		Addr:          v.GetString("HTTP_ADDR"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DB"),
		Timeout:       v.GetDuration("MONGO_CONNECT_TIMEOUT"),
		Timezone:      v.GetString("TIMEZONE"),
		ServerLog:     log.New(os.Stdout, "[mess-hall-api] ", log.LstdFlags|log.Lshortfile),
		Collections: Collections{
			Accounts:            v.GetString("ACCOUNT_COLLECTION"),
			AllowedEmails:       v.GetString("ALLOWED_EMAIL_COLLECTION"),
			Complaints:          v.GetString("COMPLAINT_COLLECTION"),
			Feedback:            v.GetString("FEEDBACK_COLLECTION"),
			Menus:               v.GetString("MENU_COLLECTION"),
			Polls:               v.GetString("POLL_COLLECTION"),
			Notices:             v.GetString("NOTICE_COLLECTION"),
			FailedNotifications: v.GetString("FAILED_NOTIFICATION_COLLECTION"),
		},
		JWTSecret:      []byte(strings.TrimSpace(v.GetString("JWT_SECRET"))),
		JWTIssuer:      v.GetString("JWT_ISSUER"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		GoogleClientID: strings.TrimSpace(v.GetString("GOOGLE_CLIENT_ID")),
		SendGridAPIKey: strings.TrimSpace(v.GetString("SENDGRID_API_KEY")),
		MailFrom:       strings.TrimSpace(v.GetString("MAIL_FROM")),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),
		DiscordWebhook: strings.TrimSpace(v.GetString("DISCORD_WEBHOOK_URL")),
		SentryDSN:      strings.TrimSpace(v.GetString("SENTRY_DSN")),
		Environment:    v.GetString("APP_ENV"),
		RetryAttempts:  v.GetInt("NOTIFY_RETRY_ATTEMPTS"),
		RetryDelay:     v.GetDuration("NOTIFY_RETRY_DELAY"),
		QueueSize:      v.GetInt("NOTIFY_QUEUE_SIZE"),
		Workers:        v.GetInt("NOTIFY_WORKERS"),
		AllowedOrigins: parseList(v.GetString("API_ALLOWED_ORIGINS"), []string{"*"}),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB", "mess-hall")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "mess-hall-api")
	v.SetDefault("TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "noreply@mess-hall.local")
	v.SetDefault("MAIL_FROM_NAME", "Mess Hall")
	v.SetDefault("DISCORD_WEBHOOK_URL", "")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("NOTIFY_RETRY_ATTEMPTS", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", 200*time.Millisecond)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 64)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("API_ALLOWED_ORIGINS", "*")

	v.SetDefault("ACCOUNT_COLLECTION", "accounts")
	v.SetDefault("ALLOWED_EMAIL_COLLECTION", "allowed_emails")
	v.SetDefault("COMPLAINT_COLLECTION", "complaints")
	v.SetDefault("FEEDBACK_COLLECTION", "feedback")
	v.SetDefault("MENU_COLLECTION", "menus")
	v.SetDefault("POLL_COLLECTION", "polls")
	v.SetDefault("NOTICE_COLLECTION", "notices")
	v.SetDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications")

	v.AutomaticEnv()
	return v
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}

package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/mess-hall/api/internal/config"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	mongodoc "github.com/sngm3741/mess-hall/api/internal/infrastructure/mongo"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/password"
)

type seedOptions struct {
	secretaryEmail    string
	secretaryPassword string
	secretaryName     string
	allow             string
	dropCollections   bool
}

func main() {
	opts := parseFlags()

	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}
	names := mongodoc.Collections(cfg.Collections)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.MongoDatabase)

	if opts.dropCollections {
		if err := dropCollections(ctx, db, names); err != nil {
			log.Fatalf("コレクション削除に失敗しました: %v", err)
		}
		log.Printf("既存コレクションを削除しました")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, names); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	now := time.Now().UTC()

	if opts.secretaryEmail != "" {
		id, err := seedSecretary(ctx, mongodoc.NewAccountRepository(db, names.Accounts), opts, now)
		if err != nil {
			log.Fatalf("幹事アカウントの作成に失敗しました: %v", err)
		}
		log.Printf("幹事アカウント: %s (%s)", opts.secretaryEmail, id)
	}

	emails, err := parseEmails(opts.allow)
	if err != nil {
		log.Fatalf("-allow の値が不正です: %v", err)
	}
	added, err := mongodoc.NewAllowedEmailRepository(db, names.AllowedEmails).EnsureAll(ctx, emails, now)
	if err != nil {
		log.Fatalf("許可メールの登録に失敗しました: %v", err)
	}

	created, err := mongodoc.NewMenuRepository(db, names.Menus).EnsureExists(ctx, now)
	if err != nil {
		log.Fatalf("献立の初期化に失敗しました: %v", err)
	}

	pending, err := mongodoc.NewFailedNotificationRepository(db, names.FailedNotifications).CountPending(ctx)
	if err != nil {
		log.Fatalf("失敗通知の件数取得に失敗しました: %v", err)
	}

	log.Printf("Seed 完了: allowedEmails=%d/%d menuCreated=%t pendingNotifications=%d", added, len(emails), created, pending)
	log.Printf("Mongo: %s / %s", cfg.MongoURI, cfg.MongoDatabase)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.secretaryEmail, "secretary-email", "", "作成・更新する幹事アカウントのメールアドレス")
	flag.StringVar(&opts.secretaryPassword, "secretary-password", "", "幹事アカウントのパスワード")
	flag.StringVar(&opts.secretaryName, "secretary-name", "Mess Secretary", "幹事アカウントの表示名")
	flag.StringVar(&opts.allow, "allow", "", "Google ログインを許可するメール (カンマ区切り)")
	flag.BoolVar(&opts.dropCollections, "drop", false, "既存コレクションを削除してから投入する")
	flag.Parse()

	if opts.secretaryEmail != "" && opts.secretaryPassword == "" {
		log.Fatal("-secretary-password を指定してください")
	}
	return opts
}

func seedSecretary(ctx context.Context, repo *mongodoc.AccountRepository, opts seedOptions, now time.Time) (string, error) {
	email, err := identitydomain.NormalizeEmail(opts.secretaryEmail)
	if err != nil {
		return "", err
	}
	hash, err := password.NewBcryptHasher(0).Hash(opts.secretaryPassword)
	if err != nil {
		return "", err
	}
	return repo.UpsertByEmail(ctx, identitydomain.Account{
		Name:         strings.TrimSpace(opts.secretaryName),
		Email:        email,
		PasswordHash: hash,
		Role:         identitydomain.RoleSecretary,
		CreatedAt:    now,
	})
}

func parseEmails(raw string) ([]string, error) {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		email, err := identitydomain.NormalizeEmail(part)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, nil
}

func dropCollections(ctx context.Context, db *mongo.Database, names mongodoc.Collections) error {
	for _, name := range []string{
		names.Accounts,
		names.AllowedEmails,
		names.Complaints,
		names.Feedback,
		names.Menus,
		names.Polls,
		names.Notices,
		names.FailedNotifications,
	} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

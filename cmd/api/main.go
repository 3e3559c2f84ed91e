package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/mess-hall/api/internal/config"
	"github.com/sngm3741/mess-hall/api/internal/server"
)

func main() {
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			cfg.ServerLog.Printf("Sentry の初期化に失敗: %v", err)
			cfg.SentryDSN = ""
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		cfg.ServerLog.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}

	app, err := server.New(cfg, client)
	if err != nil {
		_ = client.Disconnect(context.Background())
		sentry.Flush(2 * time.Second)
		cfg.ServerLog.Fatalf("サーバーの組み立てに失敗: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}

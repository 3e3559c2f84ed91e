package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/mess-hall/api/internal/config"
	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/discord"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/google"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/mail"
	mongodoc "github.com/sngm3741/mess-hall/api/internal/infrastructure/mongo"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/password"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/pdf"
	"github.com/sngm3741/mess-hall/api/internal/infrastructure/token"
	authhttp "github.com/sngm3741/mess-hall/api/internal/interfaces/http/auth"
	commonhttp "github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messhttp "github.com/sngm3741/mess-hall/api/internal/interfaces/http/mess"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
	"github.com/sngm3741/mess-hall/api/internal/notify"
)

// pinger は疎通確認に使う Mongo クライアントの一部。
type pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Server は HTTP サーバーのライフサイクルを管理し、各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	database       *mongo.Database
	health         pinger
	collections    mongodoc.Collections
	auth           identityapp.AuthService
	authHandler    *authhttp.Handler
	messHandler    *messhttp.Handler
	dispatcher     *notify.Dispatcher
	verifier       *google.Verifier
	sentry         bool
	addr           string
	allowedOrigins []string
}

// Run はインデックスを用意し、通知ワーカーと HTTP サーバーを起動してシグナルを待つ。
func (s *Server) Run() error {
	if err := s.ensureIndexes(context.Background()); err != nil {
		s.logger.Printf("インデックスの作成に失敗しました: %v", err)
	}
	s.dispatcher.Start()

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

func (s *Server) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mongodoc.EnsureIndexes(ctx, s.database, s.collections)
}

// routes は /healthz と /api 配下のルーティングを組み立てる。
func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if s.sentry {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	requireAuth := commonhttp.RequireAuth(s.logger, s.auth)
	router.Route("/api", func(r chi.Router) {
		s.authHandler.Register(r, requireAuth)
		s.messHandler.Register(r, requireAuth)
	})
	return router
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB への疎通だけを確認する。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.health.Ping(ctx, readpref.Primary()); err != nil {
			s.logger.Printf("MongoDB への疎通確認に失敗: %v", err)
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// shutdown は通知キューを流し切ってから外部接続を閉じる。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.dispatcher.Close(shutdownCtx); err != nil {
		s.logger.Printf("通知キューの停止時にエラー: %v", err)
	}
	if s.verifier != nil {
		s.verifier.Close()
	}
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
	if s.sentry {
		sentry.Flush(2 * time.Second)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("サーバーが異常終了: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
}

// New は Config と Mongo クライアントからリポジトリ・外部連携・サービス・ハンドラを組み立てる。
func New(cfg config.Config, client *mongo.Client) (*Server, error) {
	logger := cfg.ServerLog
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
		logger.Printf("タイムゾーン %s の読み込みに失敗: %v, IST を使用します", cfg.Timezone, err)
	}

	database := client.Database(cfg.MongoDatabase)
	names := mongodoc.Collections(cfg.Collections)

	accounts := mongodoc.NewAccountRepository(database, names.Accounts)
	allowed := mongodoc.NewAllowedEmailRepository(database, names.AllowedEmails)

	issuer, err := token.NewIssuer(string(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	var (
		verifier       identityapp.IdentityVerifier
		googleVerifier *google.Verifier
	)
	if cfg.GoogleClientID != "" {
		googleVerifier, err = google.NewRemoteVerifier(context.Background(), cfg.GoogleClientID, google.CertsURL, logger)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		verifier = googleVerifier
	} else {
		logger.Printf("GOOGLE_CLIENT_ID が未設定のため Google ログインは無効です")
	}

	var mailer mail.Sender
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	} else {
		logger.Printf("SENDGRID_API_KEY が未設定のためメールはログへ出力します")
		mailer = mail.NewLogSender(logger)
	}

	var channel notify.Poster
	if cfg.DiscordWebhook != "" {
		webhook, err := discord.NewWebhook(cfg.DiscordWebhook, &http.Client{Timeout: 5 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		channel = webhook
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		Mailer:    mailer,
		Channel:   channel,
		Failures:  mongodoc.NewFailedNotificationRepository(database, names.FailedNotifications),
		Logger:    logger,
		Location:  loc,
		Attempts:  cfg.RetryAttempts,
		Delay:     cfg.RetryDelay,
		QueueSize: cfg.QueueSize,
		Workers:   cfg.Workers,
	})

	authService := identityapp.NewAuthService(accounts, allowed, password.NewBcryptHasher(0), issuer, verifier)
	allowListService := identityapp.NewAllowListService(allowed)

	srv := &Server{
		logger:         logger,
		client:         client,
		database:       database,
		health:         client,
		collections:    names,
		auth:           authService,
		dispatcher:     dispatcher,
		verifier:       googleVerifier,
		sentry:         cfg.SentryDSN != "",
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}
	srv.authHandler = authhttp.NewHandler(authhttp.Config{
		Logger:    logger,
		Auth:      authService,
		AllowList: allowListService,
	})
	srv.messHandler = messhttp.NewHandler(messhttp.Config{
		Logger:     logger,
		Complaints: messapp.NewComplaintService(mongodoc.NewComplaintRepository(database, names.Complaints), accounts, dispatcher, logger),
		Feedback:   messapp.NewFeedbackService(mongodoc.NewFeedbackRepository(database, names.Feedback), accounts, loc),
		Menu:       messapp.NewMenuService(mongodoc.NewMenuRepository(database, names.Menus), accounts, dispatcher, pdf.NewMenuRenderer(), logger),
		Polls:      messapp.NewPollService(mongodoc.NewPollRepository(database, names.Polls), accounts),
		Notices:    messapp.NewNoticeService(mongodoc.NewNoticeRepository(database, names.Notices), accounts, dispatcher, logger),
	})

	return srv, nil
}

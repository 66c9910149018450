package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newsline/internal/command"
	"github.com/hitoshi/newsline/internal/config"
	"github.com/hitoshi/newsline/internal/database"
	"github.com/hitoshi/newsline/internal/fanout"
	"github.com/hitoshi/newsline/internal/handler"
	"github.com/hitoshi/newsline/internal/line"
	"github.com/hitoshi/newsline/internal/logger"
	"github.com/hitoshi/newsline/internal/metrics"
	"github.com/hitoshi/newsline/internal/repository"
	"github.com/hitoshi/newsline/internal/security"
	"github.com/hitoshi/newsline/internal/source"
	"github.com/hitoshi/newsline/internal/worker"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandCron:
		return runCron(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// botDeps は配信に関わる依存関係一式。serve・worker・cronで共有する。
type botDeps struct {
	registry  *command.Registry
	line      *line.Client
	prom      *prometheus.Registry
	collector *metrics.Collector
	engine    *fanout.Engine
}

// buildBotDeps はユーザーリポジトリからボットの依存関係を組み立てる。
func buildBotDeps(cfg *config.Config, users repository.UserRepository) *botDeps {
	// 1. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 2. コンテンツソースの初期化（取得はSSRF防止付きクライアント経由）
	srcClient := source.NewClient(
		ssrfGuard.NewSafeClient(cfg.FetchTimeout), sanitizer, cfg.FreshnessWindow,
	)
	sources := source.BuildAll(srcClient, cfg.HotpepperAPIKey, cfg.DefaultLat, cfg.DefaultLng)

	// 3. LINE Messaging APIクライアントの初期化
	lineClient := line.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(), cfg.LineChannelToken, cfg.PushRate, cfg.PushBurst,
	)

	// 4. メトリクスの初期化
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	// 5. 定期配信エンジンの初期化（定期配信対象のソースのみ渡す）
	engine := fanout.NewEngine(
		users, source.CronSources(sources), lineClient,
		slog.Default(), collector, cfg.PageSize, cfg.FetchMaxConcurrent,
	)

	return &botDeps{
		registry:  command.NewRegistry(sources),
		line:      lineClient,
		prom:      promRegistry,
		collector: collector,
		engine:    engine,
	}
}

// runServe はWebhookサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	userRepo := repository.NewPostgresUserRepo(db)
	deps := buildBotDeps(cfg, userRepo)

	resolver := command.NewResolver(deps.registry)
	executor := command.NewExecutor(deps.registry, userRepo, slog.Default(), cfg.PageSize)

	webhook := handler.NewWebhookHandler(
		userRepo, resolver, executor, deps.line,
		slog.Default(), deps.collector, cfg.LineChannelSecret,
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Webhook:  webhook,
		Runner:   deps.engine,
		DB:       db,
		Logger:   slog.Default(),
		Gatherer: deps.prom,
	})

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("webhook server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down webhook server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("webhook server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、定期配信スケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. 依存関係のワイヤリング
	userRepo := repository.NewPostgresUserRepo(db)
	deps := buildBotDeps(cfg, userRepo)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cron_interval", cfg.CronInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler := worker.NewScheduler(deps.engine, slog.Default())
	scheduler.Start(ctx, cfg.CronInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runCron は定期配信サイクルを1回実行して終了する。
// 外部のcronやCloud Schedulerなどから呼び出すワンショットモード。
func runCron(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repository.NewPostgresUserRepo(db)
	deps := buildBotDeps(cfg, userRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := deps.engine.RunCycle(ctx); err != nil {
		return fmt.Errorf("cron cycle failed: %w", err)
	}

	slog.Info("cron cycle completed")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

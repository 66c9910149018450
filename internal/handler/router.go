package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newsline/internal/metrics"
	"github.com/hitoshi/newsline/internal/middleware"
)

// CycleRunner は定期配信サイクルの実行インターフェース。fanout.Engineが実装する。
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Webhook  *WebhookHandler
	Runner   CycleRunner
	DB       *sql.DB
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	r.Post("/webhook", deps.Webhook.ServeHTTP)
	r.Post("/cron", NewCronHandler(deps.Runner, deps.Logger))
	r.Get("/health", NewHealthHandler(deps.DB))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	return r
}

// NewCronHandler は定期配信サイクルの外部トリガーを受けるハンドラーを返す。
// 配信には時間がかかるためバックグラウンドで実行し、202を即座に返す。
func NewCronHandler(runner CycleRunner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			// リクエストの終了後も配信を続けるため、リクエストコンテキストは使わない
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := runner.RunCycle(ctx); err != nil {
				logger.Error("定期配信サイクルの実行に失敗しました",
					slog.String("error", err.Error()))
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}
}

// NewHealthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

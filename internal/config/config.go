package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// LINE Messaging API
	LineChannelToken  string
	LineChannelSecret string // 空の場合は署名検証をスキップする

	// ホットペッパー Webサービス（ランチ・居酒屋検索）
	HotpepperAPIKey string
	DefaultLat      string
	DefaultLng      string

	// Fetch
	FetchTimeout       time.Duration
	FetchMaxConcurrent int
	// FreshnessWindow は「新着」とみなす期間。1日と3分前までを前日として扱う。
	FreshnessWindow time.Duration

	// 定期配信
	CronInterval time.Duration
	PageSize     int

	// 送信レート制限（req/sec）
	PushRate  float64
	PushBurst int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.LineChannelToken = os.Getenv("LINE_CHANNEL_TOKEN")
	if cfg.LineChannelToken == "" {
		missing = append(missing, "LINE_CHANNEL_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.LineChannelSecret = getEnvString("LINE_CHANNEL_SECRET", "")
	cfg.HotpepperAPIKey = getEnvString("HOTPEPPER_API_KEY", "")
	cfg.DefaultLat = getEnvString("DEFAULT_LAT", "")
	cfg.DefaultLng = getEnvString("DEFAULT_LNG", "")
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 4)
	cfg.FreshnessWindow = getEnvDuration("FRESHNESS_WINDOW", 24*time.Hour+3*time.Minute)
	cfg.CronInterval = getEnvDuration("CRON_INTERVAL", 24*time.Hour)
	cfg.PageSize = getEnvInt("PAGE_SIZE", 12)
	cfg.PushRate = getEnvFloat("PUSH_RATE", 10)
	cfg.PushBurst = getEnvInt("PUSH_BURST", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

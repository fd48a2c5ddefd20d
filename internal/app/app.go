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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pricecomps/internal/cache"
	"github.com/hitoshi/pricecomps/internal/comps"
	"github.com/hitoshi/pricecomps/internal/config"
	"github.com/hitoshi/pricecomps/internal/extract"
	"github.com/hitoshi/pricecomps/internal/handler"
	"github.com/hitoshi/pricecomps/internal/logger"
	"github.com/hitoshi/pricecomps/internal/metrics"
	"github.com/hitoshi/pricecomps/internal/middleware"
	"github.com/hitoshi/pricecomps/internal/provider/ebay"
	"github.com/hitoshi/pricecomps/internal/provider/serpapi"
	"github.com/hitoshi/pricecomps/internal/security"

	"golang.org/x/time/rate"
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envファイルの読み込み（存在しない場合は環境変数のみ使用）
	if err := godotenv.Load(); err == nil {
		slog.Info(".env file loaded")
	}

	// 3. 環境変数から設定を読み込む
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

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. セキュリティサービスの初期化
	guard := security.NewOutboundGuard()
	sanitizer := security.NewTextSanitizer()

	// 2. 抽出器とプロバイダの初期化
	extractor := extract.NewExtractor(extract.DefaultSchema(), sanitizer, slog.Default())

	primary := ebay.NewClient(
		cfg.ScraperAPIKey, guard, extractor,
		slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize,
	)
	fallback := serpapi.NewClient(cfg.SerpAPIKey, cfg.FetchTimeout, slog.Default())

	if cfg.SerpAPIKey == "" {
		slog.Warn("SERPAPI_KEY is not set; fallback search will return empty results")
	}

	// 3. キャッシュとメトリクスの初期化
	resultCache := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, nil)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. パイプラインサービスの初期化
	compsService := comps.NewService(primary, fallback, resultCache, collector, slog.Default())

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
	rateLimiterCfg.Rate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.Burst = cfg.RateLimitGeneral

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		CompsService:      compsService,
		MetricsHandler:    metrics.Handler(registry),
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
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

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/moviefacts/internal/auth"
	"github.com/hitoshi/moviefacts/internal/config"
	"github.com/hitoshi/moviefacts/internal/database"
	"github.com/hitoshi/moviefacts/internal/fact"
	"github.com/hitoshi/moviefacts/internal/handler"
	"github.com/hitoshi/moviefacts/internal/logger"
	"github.com/hitoshi/moviefacts/internal/metrics"
	"github.com/hitoshi/moviefacts/internal/middleware"
	"github.com/hitoshi/moviefacts/internal/movie"
	"github.com/hitoshi/moviefacts/internal/repository"
	"github.com/hitoshi/moviefacts/internal/security"
	"github.com/hitoshi/moviefacts/internal/user"
	"github.com/hitoshi/moviefacts/internal/worker/cleanup"
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

	// 3. 設定に従ってログレベルを変更する
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck と fact は軽量サブコマンドのため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		return runHealthcheck(serverPort())
	case CommandFact:
		return runFact(w, args[1:])
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newRegistry はGo・プロセスのメトリクスを含むレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newFactProvider はSSRF対策済みのHTTPクライアントでOpenAIProviderを構築する。
// OPENAI_BASE_URLが指定された場合は起動時に静的検証する。
func newFactProvider(cfg *config.Config, guard security.SSRFGuardService) (*fact.OpenAIProvider, error) {
	if cfg.OpenAIBaseURL != "" {
		if err := guard.ValidateURL(cfg.OpenAIBaseURL); err != nil {
			return nil, fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
		}
	}

	return fact.NewOpenAIProvider(fact.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.FactMaxTokens,
		Temperature: cfg.FactTemperature,
		BaseURL:     cfg.OpenAIBaseURL,
		HTTPClient:  guard.NewSafeClient(cfg.FactTimeout),
	}), nil
}

// breakerThreshold は設定値をサーキットブレーカーの閾値に変換する。0以下はデフォルトに任せる。
func breakerThreshold(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(n)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 3. メトリクスとセキュリティサービスの初期化
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	ssrfGuard := security.NewSSRFGuard()

	// 4. ドメインサービスの初期化
	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, identRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	provider, err := newFactProvider(cfg, ssrfGuard)
	if err != nil {
		return err
	}
	factService := fact.NewService(provider, security.NewFactSanitizer(), collector, fact.ServiceConfig{
		Timeout:          cfg.FactTimeout,
		BreakerThreshold: breakerThreshold(cfg.FactBreakerThreshold),
		BreakerCooldown:  cfg.FactBreakerCooldown,
	})

	movieService := movie.NewService(userRepo, factService, collector)
	userService := user.NewService(userRepo)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionResolver:   auth.NewSessionResolver(sessionRepo, userRepo),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		StatusRecorder: collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		MovieService: movieService,
		UserService:  userService,

		HealthChecker: db,
		Gatherer:      reg,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	// WriteTimeoutは豆知識の生成時間を上回るようにする
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FactTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, "API server")
}

// serveUntilSignal はHTTPサーバーを起動し、SIGINT/SIGTERMでグレースフルシャットダウンする。
func serveUntilSignal(server *http.Server, name string) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s listen error: %w", name, err)
	case <-stop:
	}

	slog.Info("shutting down " + name + "...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションのクリーンアップを定期実行し、/metricsを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. ジョブの初期化
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	cleanupJob := cleanup.NewSessionCleanupJob(sessionRepo, collector, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	// 3. メトリクスエンドポイント
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      metrics.SetupMetricsRoute(reg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return serveUntilSignal(server, "worker")
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

// serverPort はSERVER_PORT環境変数を返す。未設定の場合は8080。
func serverPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
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

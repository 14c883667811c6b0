package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/moviefacts/internal/metrics"
	"github.com/hitoshi/moviefacts/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
// /auth にマウントして使う。ログアウトは状態を変更するためCSRF検証を通す。
func SetupAuthRoutes(service AuthServiceInterface, config AuthHandlerConfig, csrf func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, config)

	r.Get("/google/login", h.Login)
	r.Get("/google/callback", h.Callback)
	r.With(csrf).Post("/logout", h.Logout)

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	StatusRecorder    middleware.HTTPStatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 映画・ユーザー
	MovieService MovieServiceInterface
	UserService  UserServiceInterface

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS → (Session → CSRF)
//
// /api/* はセッション必須、画面はセッション任意。/health と /metrics は認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// CSRF検証はセッション確認の後に行い、未ログインのAPI呼び出しは401を返す
	csrf := middleware.NewCSRFMiddleware(deps.CSRFConfig)

	movieHandler := NewMovieHandler(deps.MovieService)
	userHandler := NewUserHandler(deps.UserService)
	pageHandler := NewPageHandler(deps.UserService)

	// --- 認証不要のルート ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Handle("/static/*", StaticHandler())

	r.Mount("/auth", SetupAuthRoutes(deps.AuthService, deps.AuthConfig, csrf))

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 画面（セッション任意） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionResolver))
		r.Use(csrf)

		r.Get("/", pageHandler.Dashboard)
		r.Get("/login", pageHandler.Login)
	})

	// --- 認証が必要なAPI ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		r.Use(csrf)

		r.Get("/api/movie-fact", movieHandler.GetMovieFact)
		r.Post("/api/update-movie", movieHandler.UpdateMovie)
		r.Get("/api/me", userHandler.Me)
	})

	return r
}

package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/hitoshi/moviefacts/internal/dashboard"
	"github.com/hitoshi/moviefacts/internal/middleware"
	"github.com/hitoshi/moviefacts/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageHandler はログイン画面とダッシュボード画面を返すHTTPハンドラー。
type PageHandler struct {
	users UserServiceInterface
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(users UserServiceInterface) *PageHandler {
	return &PageHandler{users: users}
}

// Login はログイン画面を返す。ログイン済みならダッシュボードへ移動する。
// GET /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionUserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	render(w, "login", loginPage{Notice: loginNotice(r.URL.Query().Get("error"))})
}

// loginPage はログイン画面のテンプレートデータ。
type loginPage struct {
	Notice string
}

// loginNotice はOAuthコールバックから渡されたエラー種別を表示文に変換する。
// 未知の値は表示しない。
func loginNotice(reason string) string {
	switch reason {
	case loginErrorCancelled:
		return "Sign-in was cancelled. You can try again whenever you're ready."
	case loginErrorFailed:
		return "Sign-in with Google failed. Please try again."
	default:
		return ""
	}
}

// Dashboard はダッシュボード画面を返す。未ログインならログイン画面へ移動する。
// 初期表示の状態はユーザーレコードのお気に入り映画から決める。
// GET /
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.SessionUserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	u, err := h.users.GetProfile(r.Context(), user.Email)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		slog.Error("failed to load dashboard user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	render(w, "dashboard", dashboard.InitialSnapshot(dashboard.Profile{
		Email:         u.Email,
		Name:          u.Name,
		Image:         u.Image,
		FavoriteMovie: u.FavoriteMovieTitle(),
	}))
}

// StaticHandler は画面用のJavaScriptとCSSを配信する。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// render はテンプレートをバッファに描画してから書き込む。
func render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

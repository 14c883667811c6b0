// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/moviefacts/internal/auth"
	"github.com/hitoshi/moviefacts/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// ログイン画面に渡すエラー種別。
const (
	loginErrorCancelled = "login_cancelled"
	loginErrorFailed    = "login_failed"
)

// oauthStateTTL はstate Cookieの有効期間（秒）。
const oauthStateTTL = 600

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.stateCookie(state, oauthStateTTL))
	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
// 同意画面で拒否された場合は ?error=access_denied で戻ってくるため、ログイン画面に案内する。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// stateは一度きり
	http.SetCookie(w, h.stateCookie("", -1))

	if reason := q.Get("error"); reason != "" {
		slog.Info("google sign-in not completed",
			slog.String("reason", reason),
			slog.String("description", q.Get("error_description")),
		)
		redirectToLogin(w, r, loginErrorReason(reason))
		return
	}

	if !h.validState(r, q.Get("state")) {
		slog.Warn("oauth state mismatch", slog.String("query_state", q.Get("state")))
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.ID, h.config.SessionMaxAge))
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄してログイン画面に戻す。
// サービス側の削除に失敗してもCookieは消す。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil && c.Value != "" {
		if err := h.service.Logout(r.Context(), c.Value); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// validState はクエリのstateがLogin時に発行したCookieと一致するかを返す。
func (h *AuthHandler) validState(r *http.Request, state string) bool {
	if state == "" {
		return false
	}
	c, err := r.Cookie(oauthStateCookie)
	return err == nil && c.Value == state
}

// stateCookie はOAuth stateを保持するCookieを返す。maxAgeが負なら削除用。
func (h *AuthHandler) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     oauthStateCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionCookie はセッションIDを保持するCookieを返す。maxAgeが負なら削除用。
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// loginErrorReason はGoogleのエラーコードをログイン画面の表示種別に変換する。
func loginErrorReason(oauthError string) string {
	if oauthError == "access_denied" {
		return loginErrorCancelled
	}
	return loginErrorFailed
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(reason), http.StatusFound)
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/moviefacts/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionUserContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var sessionUserContextKey = contextKey("session_user")

// SessionResolver はリクエストを認証済みユーザーに解決するインターフェース。
// セッションが無い場合はnil, nilを返す。
type SessionResolver interface {
	ResolveSession(r *http.Request) (*model.SessionUser, error)
}

// NewSessionMiddleware はセッション必須のAPIルート用ミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// 未認証リクエストには401、セッションストアの障害には500をJSONで返す。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveSession(r)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			setLoggedUserID(r.Context(), user.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithSessionUser(r.Context(), user)))
		})
	}
}

// NewOptionalSessionMiddleware はページルート用のミドルウェアを返す。
// セッションがあればコンテキストに注入し、無くてもそのまま次へ渡す。
// 画面側で未ログイン時のリダイレクトを判断する。
func NewOptionalSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveSession(r)
			if err != nil {
				slog.Warn("failed to resolve session for page",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			setLoggedUserID(r.Context(), user.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithSessionUser(r.Context(), user)))
		})
	}
}

// SessionUserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
func SessionUserFromContext(ctx context.Context) (*model.SessionUser, bool) {
	user, ok := ctx.Value(sessionUserContextKey).(*model.SessionUser)
	if !ok || user == nil || user.Email == "" {
		return nil, false
	}
	return user, true
}

// ContextWithSessionUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSessionUser(ctx context.Context, user *model.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserContextKey, user)
}

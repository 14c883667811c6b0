package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/moviefacts/internal/model"
)

const (
	// CSRFCookieName はCSRFトークンCookieの公開名。
	CSRFCookieName = csrfCookieName
	// CSRFHeaderName はCSRFトークンヘッダーの公開名。
	CSRFHeaderName = csrfHeaderName

	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// フロントエンドからJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
	csrfHeaderName = "X-CSRF-Token"
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// csrfCookieMaxAge はCSRFトークンCookieの有効期間（秒）。
const csrfCookieMaxAge = 24 * 60 * 60

// NewCSRFMiddleware はdouble-submit方式のCSRF検証ミドルウェアを返す。
// GET/HEAD/OPTIONSは検証せず、トークンCookieがなければ発行する。
// それ以外のメソッドはCookieとX-CSRF-Tokenヘッダーの一致を要求する。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				// 発行に失敗しても閲覧は止めない。次の送信で403になる。
				if _, err := csrfToken(w, r, config); err != nil {
					slog.Error("failed to issue CSRF token", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			if reason := checkCSRFToken(r); reason != "" {
				slog.Warn("CSRF validation failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFTokenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewCSRFTokenHandler はCSRFトークンをJSONで返すハンドラー。
// GET /api/csrf-token
// ブラウザ以外のクライアント（apiclient）が送信前にトークンを得るために使う。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := csrfToken(w, r, config)
		if err != nil {
			slog.Error("failed to issue CSRF token", slog.String("error", err.Error()))
			WriteInternalServerError(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

// csrfToken はリクエストのトークンCookieを返す。
// 未設定なら新しいトークンを生成してCookieに載せる。
func csrfToken(w http.ResponseWriter, r *http.Request, config CSRFConfig) (string, error) {
	if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false, // 画面のスクリプトがヘッダーに載せる
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// checkCSRFToken はCookieとヘッダーのトークンを比較する。
// 一致すれば空文字、不一致なら理由を返す。
func checkCSRFToken(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil || c.Value == "" {
		return "missing cookie token"
	}
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "missing header token"
	}
	if subtle.ConstantTimeCompare([]byte(c.Value), []byte(header)) != 1 {
		return "token mismatch"
	}
	return ""
}

// isSafeMethod はHTTPメソッドが読み取り専用かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, movie, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeMovieRequired      = "MOVIE_REQUIRED"
	ErrCodeNoFavoriteMovie    = "NO_FAVORITE_MOVIE"
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeCSRFTokenInvalid   = "CSRF_TOKEN_INVALID"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "Sign in with Google and try again.",
	}
}

// NewMovieRequiredError は映画タイトル未入力エラーを生成する。
func NewMovieRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeMovieRequired,
		Message:  "Movie is required",
		Category: "validation",
		Action:   "Enter the title of your favorite movie.",
	}
}

// NewNoFavoriteMovieError はお気に入り映画未設定エラーを生成する。
func NewNoFavoriteMovieError() *APIError {
	return &APIError{
		Code:     ErrCodeNoFavoriteMovie,
		Message:  "No favorite movie found",
		Category: "validation",
		Action:   "Save your favorite movie before asking for a fact.",
	}
}

// NewInvalidRequestBodyError はリクエストボディ不正エラーを生成する。
func NewInvalidRequestBodyError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequestBody,
		Message:  fmt.Sprintf("Invalid request body: %s", reason),
		Category: "validation",
		Action:   `Send a JSON body such as {"movie": "Inception"}.`,
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Sign in again.",
	}
}

// NewCSRFTokenError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "Reload the page and try again.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}

// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// FavoriteMovieは未設定（nil）またはトリム済みの空でない文字列のいずれか。
type User struct {
	ID            string
	Email         string
	Name          string
	Image         string
	FavoriteMovie *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasFavoriteMovie はお気に入り映画が設定済みかどうかを返す。
func (u *User) HasFavoriteMovie() bool {
	return u != nil && u.FavoriteMovie != nil && *u.FavoriteMovie != ""
}

// FavoriteMovieTitle はお気に入り映画のタイトルを返す。未設定の場合は空文字列。
func (u *User) FavoriteMovieTitle() string {
	if !u.HasFavoriteMovie() {
		return ""
	}
	return *u.FavoriteMovie
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionUser はセッションから解決された認証済みユーザーの識別情報。
// ユーザーごとの操作はすべてEmailをキーに行う。
type SessionUser struct {
	UserID string
	Email  string
	Name   string
	Image  string
}

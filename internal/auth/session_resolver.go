package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hitoshi/moviefacts/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// SessionFinder はセッションの検索に必要なインターフェース。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// UserFinder はセッションのユーザーを引くためのインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionResolver はリクエストのセッションCookieを認証済みユーザーに解決する。
type SessionResolver struct {
	sessions SessionFinder
	users    UserFinder
	now      func() time.Time
}

// NewSessionResolver はSessionResolverを生成する。
func NewSessionResolver(sessions SessionFinder, users UserFinder) *SessionResolver {
	return &SessionResolver{sessions: sessions, users: users, now: time.Now}
}

// ResolveSession はリクエストからセッションを解決する。
// Cookieが無い場合はストアに一切アクセスせずnil, nilを返す。
// 期限切れ・不明なセッション、削除済みユーザーの場合もnil, nilを返す。
func (r *SessionResolver) ResolveSession(req *http.Request) (*model.SessionUser, error) {
	cookie, err := req.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	ctx := req.Context()
	session, err := r.sessions.FindByID(ctx, cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || !session.ExpiresAt.After(r.now()) {
		return nil, nil
	}

	user, err := r.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil || user.Email == "" {
		return nil, nil
	}

	return &model.SessionUser{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Image:  user.Image,
	}, nil
}

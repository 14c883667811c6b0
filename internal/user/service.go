// Package user はログイン中ユーザーのプロフィール参照を提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/moviefacts/internal/model"
)

// UserFinder はメールアドレスによるユーザー検索インターフェース。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Service はユーザー情報のサービス層。
type Service struct {
	users UserFinder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users UserFinder) *Service {
	return &Service{users: users}
}

// GetProfile はセッションのメールアドレスに対応するユーザーレコードを返す。
// 映画更新後にクライアントが最新のユーザー情報を取り直すために使う。
func (s *Service) GetProfile(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

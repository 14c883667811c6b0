// Package movie はお気に入り映画の更新と豆知識取得のビジネスロジックを提供する。
package movie

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/moviefacts/internal/model"
)

// UserStore はお気に入り映画の読み書きに必要なユーザーストアのインターフェース。
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateFavoriteMovie(ctx context.Context, email, title string) error
}

// FactSource は映画タイトルから表示用の豆知識を返す。失敗しない。
type FactSource interface {
	GetFact(ctx context.Context, title string) string
}

// UpdateRecorder は映画更新の記録インターフェース。
type UpdateRecorder interface {
	RecordMovieUpdated()
}

// Service は映画更新と豆知識取得のサービス層。
type Service struct {
	users   UserStore
	facts   FactSource
	metrics UpdateRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users UserStore, facts FactSource, metrics UpdateRecorder) *Service {
	return &Service{
		users:   users,
		facts:   facts,
		metrics: metrics,
	}
}

// UpdateFavoriteMovie は前後の空白を除いたタイトルでお気に入り映画を上書きし、保存したタイトルを返す。
// 空のタイトルはストアに触れずにMOVIE_REQUIREDエラーを返す。
func (s *Service) UpdateFavoriteMovie(ctx context.Context, email, raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", model.NewMovieRequiredError()
	}

	if err := s.users.UpdateFavoriteMovie(ctx, email, title); err != nil {
		return "", fmt.Errorf("お気に入り映画の更新に失敗しました: %w", err)
	}

	s.metrics.RecordMovieUpdated()
	slog.Info("favorite movie updated",
		slog.String("email", email),
		slog.String("movie", title),
	)
	return title, nil
}

// GetMovieFact は保存済みのお気に入り映画の豆知識を返す。
// 映画が未設定の場合はプロバイダーを呼ばずにNO_FAVORITE_MOVIEエラーを返す。
func (s *Service) GetMovieFact(ctx context.Context, email string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if !u.HasFavoriteMovie() {
		return "", model.NewNoFavoriteMovieError()
	}

	return s.facts.GetFact(ctx, u.FavoriteMovieTitle()), nil
}

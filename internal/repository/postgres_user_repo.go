package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/moviefacts/internal/model"
)

// ErrUserNotFound は更新対象のユーザーが存在しない場合のエラー。
var ErrUserNotFound = errors.New("user not found")

const selectUserColumns = `SELECT id, email, name, image, favorite_movie, created_at, updated_at FROM users`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.Image, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.UserID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateProfile はIdPから取得した表示名とアイコン画像を更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id, name, image string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, image = $3, updated_at = now() WHERE id = $1`,
		id, name, image,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return requireOneRow(result, id)
}

// UpdateFavoriteMovie は指定メールアドレスのユーザーのお気に入り映画を更新する。
func (r *PostgresUserRepo) UpdateFavoriteMovie(ctx context.Context, email, title string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET favorite_movie = $2, updated_at = now() WHERE email = $1`,
		email, title,
	)
	if err != nil {
		return fmt.Errorf("failed to update favorite movie: %w", err)
	}
	return requireOneRow(result, email)
}

// scanUser は1行をmodel.Userに変換する。行が存在しない場合はnilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var favorite sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Image, &favorite, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if favorite.Valid && favorite.String != "" {
		title := favorite.String
		user.FavoriteMovie = &title
	}
	return user, nil
}

// requireOneRow は更新対象が存在したことを確認する。
func requireOneRow(result sql.Result, key string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, key)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)

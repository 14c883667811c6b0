package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/moviefacts/internal/model"
)

type mockUserFinder struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserFinder) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

func TestGetProfile_ReturnsUser(t *testing.T) {
	movie := "Inception"
	svc := NewService(&mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "a@x.com" {
				t.Errorf("email = %q, want a@x.com", email)
			}
			return &model.User{ID: "u1", Email: email, FavoriteMovie: &movie}, nil
		},
	})

	u, err := svc.GetProfile(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if u.FavoriteMovieTitle() != "Inception" {
		t.Errorf("favorite movie = %q, want Inception", u.FavoriteMovieTitle())
	}
}

func TestGetProfile_NotFound_ReturnsAPIError(t *testing.T) {
	svc := NewService(&mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	})

	_, err := svc.GetProfile(context.Background(), "ghost@x.com")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestGetProfile_StoreError_Wrapped(t *testing.T) {
	storeErr := errors.New("connection reset")
	svc := NewService(&mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, storeErr
		},
	})

	_, err := svc.GetProfile(context.Background(), "a@x.com")
	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want wrapped %v", err, storeErr)
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Error("store failure must not be reported as an APIError")
	}
}

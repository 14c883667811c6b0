package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/moviefacts/internal/middleware"
	"github.com/hitoshi/moviefacts/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetProfile はメールアドレスに対応するユーザーレコードを返す。
	GetProfile(ctx context.Context, email string) (*model.User, error)
}

// meResponse はGET /api/meのレスポンスボディ。
type meResponse struct {
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	FavoriteMovie *string `json:"favoriteMovie"`
}

// UserHandler はユーザー情報のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Me はログイン中ユーザーの最新のレコードを返す。
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.SessionUserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	u, err := h.service.GetProfile(r.Context(), user.Email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Email:         u.Email,
		Name:          u.Name,
		Image:         u.Image,
		FavoriteMovie: u.FavoriteMovie,
	})
}

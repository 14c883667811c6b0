package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/hitoshi/moviefacts/internal/middleware"
	"github.com/hitoshi/moviefacts/internal/model"
)

// maxUpdateMovieBodySize は映画更新リクエストボディの上限（バイト）。
const maxUpdateMovieBodySize = 4 << 10

// MovieServiceInterface は映画ハンドラーが必要とするサービスインターフェース。
type MovieServiceInterface interface {
	UpdateFavoriteMovie(ctx context.Context, email, raw string) (string, error)
	GetMovieFact(ctx context.Context, email string) (string, error)
}

// updateMovieRequest はPOST /api/update-movieのリクエストボディ。
// 空白のみのタイトルはサービスに渡す前に弾く。
type updateMovieRequest struct {
	Movie string `json:"movie" validate:"notblank"`
}

// updateMovieResponse はPOST /api/update-movieのレスポンスボディ。
type updateMovieResponse struct {
	Message string `json:"message"`
	Movie   string `json:"movie"`
}

// movieFactResponse はGET /api/movie-factのレスポンスボディ。
type movieFactResponse struct {
	Fact string `json:"fact"`
}

// MovieHandler は映画更新と豆知識取得のHTTPハンドラー。
type MovieHandler struct {
	service  MovieServiceInterface
	validate *validator.Validate
}

// NewMovieHandler はMovieHandlerを生成する。
func NewMovieHandler(service MovieServiceInterface) *MovieHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validation: %v", err))
	}

	return &MovieHandler{
		service:  service,
		validate: v,
	}
}

// UpdateMovie はログイン中ユーザーのお気に入り映画を更新する。
// POST /api/update-movie
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.SessionUserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateMovieRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateMovieBodySize))
	if err := dec.Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestBodyError(describeDecodeError(err)))
		return
	}
	// ボディはJSON値1つのみ
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestBodyError("unexpected data after JSON object"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMovieRequiredError())
			return
		}
		handleServiceError(w, r, err)
		return
	}

	title, err := h.service.UpdateFavoriteMovie(r.Context(), user.Email, req.Movie)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateMovieResponse{
		Message: "Movie updated successfully",
		Movie:   title,
	})
}

// GetMovieFact は保存済みのお気に入り映画の豆知識を返す。
// 豆知識の生成に失敗した場合も200で代替文を返す。
// GET /api/movie-fact
func (h *MovieHandler) GetMovieFact(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.SessionUserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	fact, err := h.service.GetMovieFact(r.Context(), user.Email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movieFactResponse{Fact: fact})
}

// describeDecodeError はJSONデコードエラーをクライアント向けの短い説明に変換する。
func describeDecodeError(err error) string {
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &se):
		return "malformed JSON"
	case errors.As(err, &ute):
		return ute.Field + " must be a " + ute.Type.String()
	case errors.As(err, &mbe):
		return "body too large"
	default:
		return "invalid JSON"
	}
}

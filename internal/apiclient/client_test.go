package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/moviefacts/internal/model"
)

func newServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "sess-1", srv.Client())
}

func requireSession(t *testing.T, r *http.Request) {
	t.Helper()
	c, err := r.Cookie("session_id")
	if err != nil || c.Value != "sess-1" {
		t.Errorf("session cookie = %v, %v", c, err)
	}
}

func TestClient_GetFact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/movie-fact", func(w http.ResponseWriter, r *http.Request) {
		requireSession(t, r)
		json.NewEncoder(w).Encode(map[string]string{"fact": "Inception fact"})
	})

	got, err := newServer(t, mux).GetFact(context.Background())
	if err != nil {
		t.Fatalf("GetFact() error = %v", err)
	}
	if got != "Inception fact" {
		t.Errorf("GetFact() = %q", got)
	}
}

func TestClient_UpdateMovie_SendsCSRFToken(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]string{"token": "csrf-abc"})
	})
	mux.HandleFunc("POST /api/update-movie", func(w http.ResponseWriter, r *http.Request) {
		requireSession(t, r)
		if got := r.Header.Get("X-CSRF-Token"); got != "csrf-abc" {
			t.Errorf("X-CSRF-Token = %q", got)
		}
		if c, err := r.Cookie("csrf_token"); err != nil || c.Value != "csrf-abc" {
			t.Errorf("csrf cookie = %v, %v", c, err)
		}
		var body struct {
			Movie string `json:"movie"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Movie != "Inception" {
			t.Errorf("body = %+v, err = %v", body, err)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Movie updated successfully", "movie": "Inception"})
	})

	c := newServer(t, mux)
	for i := 0; i < 2; i++ {
		if err := c.UpdateMovie(context.Background(), "Inception"); err != nil {
			t.Fatalf("UpdateMovie() error = %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("csrf token fetched %d times, want 1", tokenCalls)
	}
}

func TestClient_UpdateMovie_ErrorBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	})
	mux.HandleFunc("POST /api/update-movie", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Movie is required",
			"code":  model.ErrCodeMovieRequired,
		})
	})

	err := newServer(t, mux).UpdateMovie(context.Background(), " ")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != model.ErrCodeMovieRequired {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Error() != "Movie is required" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestClient_GetMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		requireSession(t, r)
		json.NewEncoder(w).Encode(map[string]string{
			"email":         "a@x.com",
			"name":          "A",
			"image":         "https://img/a.png",
			"favoriteMovie": "Inception",
		})
	})

	p, err := newServer(t, mux).GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error = %v", err)
	}
	if p.Email != "a@x.com" || p.FavoriteMovie != "Inception" || p.Image != "https://img/a.png" {
		t.Errorf("profile = %+v", p)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/movie-fact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized","code":"UNAUTHORIZED"}`))
	})

	_, err := newServer(t, mux).GetFact(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("error = %v, want 401 *Error", err)
	}
}

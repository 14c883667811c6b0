package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/moviefacts/internal/model"
)

func profileService(favorite *string) *mockUserService {
	return &mockUserService{
		getProfileFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:            "user-1",
				Email:         email,
				Name:          "Alice",
				Image:         "https://example.com/a.png",
				FavoriteMovie: favorite,
			}, nil
		},
	}
}

func TestPageHandler_Login_RendersSignIn(t *testing.T) {
	h := NewPageHandler(&mockUserService{})

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Welcome to Movie Facts", "Sign in with Google", `href="/auth/google/login"`} {
		if !strings.Contains(body, want) {
			t.Errorf("login page should contain %q", want)
		}
	}
}

func TestPageHandler_Login_ShowsNotice(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"cancelled", "?error=login_cancelled", "Sign-in was cancelled.", true},
		{"failed", "?error=login_failed", "Sign-in with Google failed.", true},
		{"unknown reason", "?error=%3Cscript%3E", "", false},
		{"no reason", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPageHandler(&mockUserService{})

			w := httptest.NewRecorder()
			h.Login(w, httptest.NewRequest(http.MethodGet, "/login"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			body := w.Body.String()
			if got := strings.Contains(body, `role="alert"`); got != tt.wantErr {
				t.Errorf("alert shown = %v, want %v", got, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(body, tt.want) {
				t.Errorf("login page should contain %q", tt.want)
			}
			if strings.Contains(body, "<script>") {
				t.Error("query value must not be reflected into the page")
			}
		})
	}
}

func TestPageHandler_Login_WithSession_RedirectsHome(t *testing.T) {
	h := NewPageHandler(&mockUserService{})

	req := withSessionUser(httptest.NewRequest(http.MethodGet, "/login", nil), testSessionUser)
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestPageHandler_Dashboard_NoSession_RedirectsToLogin(t *testing.T) {
	svc := &mockUserService{}
	h := NewPageHandler(svc)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if svc.calls != 0 {
		t.Error("user store should not be read without a session")
	}
}

func TestPageHandler_Dashboard_NoMovie_OpensFirstTimeModal(t *testing.T) {
	h := NewPageHandler(profileService(nil))

	req := withSessionUser(httptest.NewRequest(http.MethodGet, "/", nil), testSessionUser)
	w := httptest.NewRecorder()
	h.Dashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-state="no-movie-set"`) {
		t.Error("page should start in the no-movie-set state")
	}
	if !strings.Contains(body, "What&#39;s your favorite movie?") {
		t.Error("page should show the first-time modal title")
	}
	if !strings.Contains(body, `<div id="movie-modal" class="modal">`) {
		t.Error("modal should be visible")
	}
	if !strings.Contains(body, `<div id="movie-section" class="movie" hidden>`) {
		t.Error("movie section should be hidden without a movie")
	}
	if !strings.Contains(body, `id="movie-cancel" class="button subtle" type="button" hidden`) {
		t.Error("first-time modal should not offer cancel")
	}
}

func TestPageHandler_Dashboard_WithMovie_StartsLoadingFact(t *testing.T) {
	h := NewPageHandler(profileService(strPtr("Inception")))

	req := withSessionUser(httptest.NewRequest(http.MethodGet, "/", nil), testSessionUser)
	w := httptest.NewRecorder()
	h.Dashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{
		`data-state="movie-set-loading-fact"`,
		`data-movie="Inception"`,
		`<div id="movie-modal" class="modal" hidden>`,
		"Alice",
		"a@x.com",
		`src="https://example.com/a.png"`,
		`<script src="/static/app.js"></script>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}

func TestPageHandler_Dashboard_EscapesUserContent(t *testing.T) {
	h := NewPageHandler(profileService(strPtr(`<script>alert(1)</script>`)))

	req := withSessionUser(httptest.NewRequest(http.MethodGet, "/", nil), testSessionUser)
	w := httptest.NewRecorder()
	h.Dashboard(w, req)

	if strings.Contains(w.Body.String(), "<script>alert(1)</script>") {
		t.Error("movie title must be escaped")
	}
}

func TestPageHandler_Dashboard_UserErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted user", model.NewUserNotFoundError(), http.StatusSeeOther},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				getProfileFn: func(ctx context.Context, email string) (*model.User, error) {
					return nil, tt.err
				},
			}
			h := NewPageHandler(svc)

			req := withSessionUser(httptest.NewRequest(http.MethodGet, "/", nil), testSessionUser)
			w := httptest.NewRecorder()
			h.Dashboard(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestStaticHandler_ServesScript(t *testing.T) {
	srv := httptest.NewServer(StaticHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/app.js")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "Unable to fetch movie fact at the moment.") {
		t.Error("app.js should carry the fallback fact text")
	}
}

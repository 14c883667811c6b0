// Package apiclient は映画APIのHTTPクライアントを提供する。
// セッションCookieで認証し、更新系リクエストにはCSRFトークンを付与する。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/moviefacts/internal/auth"
	"github.com/hitoshi/moviefacts/internal/dashboard"
	"github.com/hitoshi/moviefacts/internal/middleware"
)

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 1 << 20

// Error はAPIが返したエラーレスポンス。
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return e.Message
}

// Client はセッションIDを持つユーザーとしてAPIを呼び出す。
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client

	mu        sync.Mutex
	csrfToken string
}

// New はClientを生成する。httpClientがnilの場合は15秒タイムアウトのクライアントを使用する。
func New(baseURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		httpClient: httpClient,
	}
}

// GetFact は保存済みの映画の豆知識を取得する。
func (c *Client) GetFact(ctx context.Context) (string, error) {
	var body struct {
		Fact string `json:"fact"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/movie-fact", nil, &body); err != nil {
		return "", err
	}
	return body.Fact, nil
}

// UpdateMovie はお気に入り映画を更新する。
func (c *Client) UpdateMovie(ctx context.Context, title string) error {
	payload, err := json.Marshal(map[string]string{"movie": title})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/update-movie", payload, nil)
}

// GetMe はログイン中ユーザーの最新情報を取得する。
func (c *Client) GetMe(ctx context.Context) (*dashboard.Profile, error) {
	var p dashboard.Profile
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// token はCSRFトークンを返す。未取得の場合はサーバーから取得する。
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/csrf-token", nil, &body); err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("empty csrf token")
	}

	c.mu.Lock()
	c.csrfToken = body.Token
	c.mu.Unlock()
	return body.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var csrf string
	if method != http.MethodGet {
		var err error
		if csrf, err = c.token(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: c.sessionID})
	if csrf != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: csrf})
		req.Header.Set(middleware.CSRFHeaderName, csrf)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errBody middleware.ErrorResponseBody
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

var _ dashboard.API = (*Client)(nil)

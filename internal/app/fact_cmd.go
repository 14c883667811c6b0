package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hitoshi/moviefacts/internal/apiclient"
	"github.com/hitoshi/moviefacts/internal/dashboard"
	"github.com/hitoshi/moviefacts/internal/logger"
)

// errNoSession はセッションIDが未指定の場合のエラー。
var errNoSession = errors.New("MOVIEFACTS_SESSION is not set")

// runFact は稼働中のサーバーから豆知識を取得して表示する。
// 引数にタイトルがあれば先にお気に入り映画を更新する。
// 接続先はMOVIEFACTS_URL（省略時はlocalhostのSERVER_PORT）、認証はMOVIEFACTS_SESSIONのセッションID。
func runFact(w io.Writer, args []string) error {
	logger.SetupDefault(os.Stderr)

	sessionID := os.Getenv("MOVIEFACTS_SESSION")
	if sessionID == "" {
		return errNoSession
	}
	baseURL := os.Getenv("MOVIEFACTS_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + serverPort()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := apiclient.New(baseURL, sessionID, nil)
	snap, err := showFact(ctx, client, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Movie: %s\nFact: %s\n", snap.Movie, snap.Fact)
	return nil
}

// showFact はダッシュボードと同じ手順で画面の内容を組み立てる。
func showFact(ctx context.Context, api dashboard.API, title string) (dashboard.Snapshot, error) {
	me, err := api.GetMe(ctx)
	if err != nil {
		return dashboard.Snapshot{}, fmt.Errorf("failed to load user: %w", err)
	}

	c := dashboard.NewController(api, *me)

	if strings.TrimSpace(title) != "" {
		if c.Snapshot().State != dashboard.StateNoMovie {
			if err := c.RequestChange(); err != nil {
				return dashboard.Snapshot{}, err
			}
		}
		if err := c.SubmitMovie(ctx, title); err != nil {
			return dashboard.Snapshot{}, fmt.Errorf("failed to update movie: %w", err)
		}
		return c.Snapshot(), nil
	}

	if c.Snapshot().State == dashboard.StateNoMovie {
		return dashboard.Snapshot{}, errors.New("no favorite movie set; pass a title to set one")
	}
	if err := c.Mount(ctx); err != nil {
		return dashboard.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

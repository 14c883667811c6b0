package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/moviefacts/internal/fact"
)

var (
	// ErrFetchInFlight は取得中に再取得を要求した場合のエラー。状態は変わらない。
	ErrFetchInFlight = errors.New("fact request already in flight")
	// ErrMovieRequired は空のタイトルで送信した場合のエラー。APIは呼ばれない。
	ErrMovieRequired = errors.New("movie is required")
)

// Profile は画面に表示するユーザー情報。
type Profile struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	FavoriteMovie string `json:"favoriteMovie"`
}

// API は画面が利用するサーバーAPI。
type API interface {
	GetFact(ctx context.Context) (string, error)
	UpdateMovie(ctx context.Context, title string) error
	GetMe(ctx context.Context) (*Profile, error)
}

// Snapshot はある時点の画面の内容。
type Snapshot struct {
	State     State
	User      Profile
	Movie     string
	Fact      string
	Loading   bool
	Draft     string
	LastError string
}

// ModalOpen は映画入力モーダルを表示するかを返す。
func (s Snapshot) ModalOpen() bool {
	return s.State == StateNoMovie || s.State == StateEditing
}

// ModalTitle はモーダルの見出しを返す。
func (s Snapshot) ModalTitle() string {
	if s.State == StateEditing {
		return "Change Your Favorite Movie"
	}
	return "What's your favorite movie?"
}

// CanCancel は変更モーダルでキャンセルできるかを返す。初回入力はキャンセル不可。
func (s Snapshot) CanCancel() bool {
	return s.State == StateEditing
}

// Controller は画面の状態を保持し、ユーザー操作をAPI呼び出しと状態遷移に変換する。
// 同時に走る豆知識の取得は常に1件まで。
type Controller struct {
	api API

	mu      sync.Mutex
	state   State
	resume  State
	user    Profile
	movie   string
	fact    string
	draft   string
	loading bool
	// fetchSeq は映画の変更ごとに進め、古い映画の取得結果を捨てるために使う。
	fetchSeq uint64
	lastErr  error
}

// InitialSnapshot はログイン直後の画面内容を返す。
// サーバー側の初期描画はAPIを呼ばないため、Controllerを作らずにこれを使う。
func InitialSnapshot(user Profile) Snapshot {
	movie := strings.TrimSpace(user.FavoriteMovie)
	return Snapshot{
		State: InitialState(movie != ""),
		User:  user,
		Movie: movie,
		Draft: movie,
	}
}

// NewController はログイン中ユーザーの情報からControllerを生成する。
func NewController(api API, user Profile) *Controller {
	s := InitialSnapshot(user)
	return &Controller{
		api:   api,
		state: s.State,
		user:  s.User,
		movie: s.Movie,
		draft: s.Draft,
	}
}

// Snapshot は現在の画面内容を返す。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:   c.state,
		User:    c.user,
		Movie:   c.movie,
		Fact:    c.fact,
		Loading: c.loading,
		Draft:   c.draft,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Mount は画面表示時の処理。映画が設定済みなら豆知識を取得する。
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	hasMovie := c.movie != ""
	c.mu.Unlock()

	if !hasMovie {
		return nil
	}
	return c.fetchFact(ctx)
}

// RefreshFact は豆知識を手動で再取得する。
// 取得中や映画未設定・編集中の場合は何もせずエラーを返す。
func (c *Controller) RefreshFact(ctx context.Context) error {
	return c.fetchFact(ctx)
}

// RequestChange は変更モーダルを開く。入力欄には現在の映画を入れる。
func (c *Controller) RequestChange() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	if err := c.apply(EventRequestChange); err != nil {
		return err
	}
	c.resume = prev
	c.draft = c.movie
	c.lastErr = nil
	return nil
}

// CancelEdit は変更モーダルを閉じ、入力内容を現在の映画に戻す。
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.apply(EventCancelEdit); err != nil {
		return err
	}
	c.draft = c.movie
	c.lastErr = nil
	return nil
}

// SubmitMovie は入力されたタイトルでお気に入り映画を更新する。
// 失敗時は映画を変えずにモーダルを開いたままにし、エラーをLastErrorに残す。
// 成功時は表示中の豆知識を消し、ユーザー情報を取り直してから新しい豆知識を取得する。
func (c *Controller) SubmitMovie(ctx context.Context, raw string) error {
	c.mu.Lock()
	if c.state != StateNoMovie && c.state != StateEditing {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.draft = raw
	title := strings.TrimSpace(raw)
	if title == "" {
		c.lastErr = ErrMovieRequired
		c.mu.Unlock()
		return ErrMovieRequired
	}
	c.mu.Unlock()

	if err := c.api.UpdateMovie(ctx, title); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if err := c.apply(EventSubmitSuccess); err != nil {
		c.mu.Unlock()
		return err
	}
	c.movie = title
	c.draft = title
	c.lastErr = nil
	c.fetchSeq++
	// ユーザー情報の再取得中に手動の再取得が割り込まないよう、ここで取得枠を確保する
	seq := c.claimFetchLocked()
	c.mu.Unlock()

	if me, err := c.api.GetMe(ctx); err != nil {
		slog.Warn("failed to refresh user after movie update", slog.String("error", err.Error()))
	} else {
		c.mu.Lock()
		c.user = *me
		c.mu.Unlock()
	}

	return c.runFetch(ctx, seq)
}

// fetchFact は豆知識を1件取得する。
// APIの失敗は画面にエラーとして出さず、フォールバック文言を表示する。
func (c *Controller) fetchFact(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrFetchInFlight
	}
	switch c.state {
	case StateLoadingFact:
	case StateFactReady:
		if err := c.apply(EventFetchStart); err != nil {
			c.mu.Unlock()
			return err
		}
	default:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	seq := c.claimFetchLocked()
	c.mu.Unlock()

	return c.runFetch(ctx, seq)
}

// claimFetchLocked は取得中フラグを立て、表示中の豆知識を消す。c.muを保持して呼ぶこと。
func (c *Controller) claimFetchLocked() uint64 {
	c.loading = true
	c.fact = ""
	return c.fetchSeq
}

// runFetch はclaimFetchLockedで確保した取得を実行し、結果を反映する。
func (c *Controller) runFetch(ctx context.Context, seq uint64) error {
	text, err := c.api.GetFact(ctx)
	if err != nil {
		slog.Warn("fact request failed", slog.String("error", err.Error()))
		text = fact.FallbackFact
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 取得中に映画が変わった場合は結果を捨てる
	if seq != c.fetchSeq {
		return nil
	}
	c.loading = false
	c.fact = text
	if c.state == StateEditing {
		c.resume = StateFactReady
	}
	return c.apply(EventFetchDone)
}

// apply は遷移表に従って状態を進める。c.muを保持して呼ぶこと。
func (c *Controller) apply(event Event) error {
	next, err := Transition(c.state, event, c.resume)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

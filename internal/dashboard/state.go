// Package dashboard はお気に入り映画画面の状態遷移と操作を提供する。
//
// 画面は4つの状態を持ち、遷移は表で定義する。
//
//	no-movie-set           映画未設定。初回入力モーダルを表示する
//	movie-set-loading-fact 映画設定済み。豆知識を取得中
//	movie-set-fact-ready   映画設定済み。豆知識を表示中
//	editing                変更モーダルを表示中
package dashboard

import (
	"errors"
	"fmt"
)

// State は画面の状態。
type State int

const (
	StateNoMovie State = iota
	StateLoadingFact
	StateFactReady
	StateEditing
)

// String は状態名を返す。テンプレートとログで使用する。
func (s State) String() string {
	switch s {
	case StateNoMovie:
		return "no-movie-set"
	case StateLoadingFact:
		return "movie-set-loading-fact"
	case StateFactReady:
		return "movie-set-fact-ready"
	case StateEditing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event は状態遷移を引き起こす操作・通知。
type Event int

const (
	// EventFetchStart は手動の豆知識再取得。
	EventFetchStart Event = iota
	// EventFetchDone は豆知識（またはフォールバック文言）の受信。
	EventFetchDone
	// EventRequestChange は変更モーダルを開く操作。
	EventRequestChange
	// EventCancelEdit は変更モーダルのキャンセル。
	EventCancelEdit
	// EventSubmitSuccess は映画更新の成功。
	EventSubmitSuccess
)

func (e Event) String() string {
	switch e {
	case EventFetchStart:
		return "fetch-start"
	case EventFetchDone:
		return "fetch-done"
	case EventRequestChange:
		return "request-change"
	case EventCancelEdit:
		return "cancel-edit"
	case EventSubmitSuccess:
		return "submit-success"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// ErrInvalidTransition は現在の状態で受け付けない操作のエラー。
var ErrInvalidTransition = errors.New("invalid state transition")

// stateResume は変更モーダルを開く前の状態に戻ることを表す遷移先。
const stateResume State = -1

type transitionKey struct {
	from  State
	event Event
}

// transitions は状態遷移表。ここに無い組み合わせはすべて不正。
var transitions = map[transitionKey]State{
	{StateNoMovie, EventSubmitSuccess}: StateLoadingFact,

	{StateLoadingFact, EventFetchDone}:     StateFactReady,
	{StateLoadingFact, EventRequestChange}: StateEditing,

	{StateFactReady, EventFetchStart}:    StateLoadingFact,
	{StateFactReady, EventRequestChange}: StateEditing,

	// 編集中に取得が完了しても画面はモーダルのまま
	{StateEditing, EventFetchDone}:     StateEditing,
	{StateEditing, EventCancelEdit}:    stateResume,
	{StateEditing, EventSubmitSuccess}: StateLoadingFact,
}

// Transition は遷移表に従って次の状態を返す。
// キャンセルで元の状態に戻る場合は、呼び出し側が保持するresumeを返す。
func Transition(from State, event Event, resume State) (State, error) {
	to, ok := transitions[transitionKey{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	if to == stateResume {
		return resume, nil
	}
	return to, nil
}

// InitialState はページ表示時の状態を返す。
// 映画が設定済みなら表示と同時に豆知識の取得を始める。
func InitialState(hasMovie bool) State {
	if hasMovie {
		return StateLoadingFact
	}
	return StateNoMovie
}

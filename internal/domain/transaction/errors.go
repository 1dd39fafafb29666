package transaction

import (
	"errors"
	"fmt"
)

// ErrPersistence は永続化層の失敗を表す
// errors.Is(err, ErrPersistence) で PersistenceError 全般を判定できる
var ErrPersistence = errors.New("永続化に失敗しました")

// Kind は永続化エラーの分類
type Kind string

const (
	// KindConnectivity は接続断・ネットワーク障害（再試行の余地あり）
	KindConnectivity Kind = "connectivity"
	// KindTimeout は接続取得・ロック待ち・ステートメントのタイムアウト
	KindTimeout Kind = "timeout"
	// KindConflict はシリアライズ失敗・デッドロック
	KindConflict Kind = "conflict"
	// KindConstraint は制約違反（再試行しても結果は変わらない）
	KindConstraint Kind = "constraint"
	// KindUnknown は分類できないエラー
	KindUnknown Kind = "unknown"
)

// PersistenceError はストレージ由来のエラーをラップする
type PersistenceError struct {
	Kind Kind
	Op   string
	Err  error
}

// NewPersistenceError は PersistenceError を作成する
func NewPersistenceError(kind Kind, op string, err error) *PersistenceError {
	return &PersistenceError{Kind: kind, Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("永続化エラー(%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("永続化エラー(%s) %s: %v", e.Kind, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Retryable は呼び出し側が操作全体を最初からやり直す価値があるかを返す
func (e *PersistenceError) Retryable() bool {
	switch e.Kind {
	case KindConnectivity, KindTimeout, KindConflict:
		return true
	default:
		return false
	}
}

// IsRetryable は err が再試行可能な PersistenceError かを返す
func IsRetryable(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// KindOf は err に含まれる PersistenceError の分類を返す
func KindOf(err error) (Kind, bool) {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

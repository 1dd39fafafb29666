package booking

import (
	"errors"
	"sort"
	"strings"
)

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound = errors.New("予約が見つかりません")
	ErrEmptySelection  = errors.New("座席が選択されていません")
	ErrDuplicateSeat   = errors.New("同じ座席が複数回選択されています")
	ErrBlankSeatLabel  = errors.New("座席ラベルが空です")
	ErrShowIDRequired  = errors.New("上映IDは必須です")
	ErrUserIDRequired  = errors.New("ユーザーIDは必須です")
	ErrInvalidAmount   = errors.New("合計金額は0以上である必要があります")
	ErrSeatUnavailable = errors.New("座席は予約できません")
)

// SeatUnavailableError は予約できなかった座席を保持する
// errors.Is(err, ErrSeatUnavailable) が true になる
type SeatUnavailableError struct {
	Seats []string
}

// NewSeatUnavailableError は競合した座席ラベルを昇順で保持するエラーを作成する
func NewSeatUnavailableError(seats []string) *SeatUnavailableError {
	sorted := make([]string, len(seats))
	copy(sorted, seats)
	sort.Strings(sorted)
	return &SeatUnavailableError{Seats: sorted}
}

func (e *SeatUnavailableError) Error() string {
	return ErrSeatUnavailable.Error() + ": " + strings.Join(e.Seats, ", ")
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// IsValidationError は入力検証エラーかを返す（ストレージには一切触れていない）
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrDuplicateSeat) ||
		errors.Is(err, ErrBlankSeatLabel) ||
		errors.Is(err, ErrShowIDRequired) ||
		errors.Is(err, ErrUserIDRequired)
}

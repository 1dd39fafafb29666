package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking は1つの上映に対する1つ以上の座席の確定した予約
// 作成後に変更されるのは Status のみ
type Booking struct {
	ID          string
	ShowID      string
	UserID      string
	SeatLabels  []string
	TotalAmount int
	Status      Status
	CreatedAt   time.Time
}

// NewBooking は新しい予約を作成する
func NewBooking(showID, userID string, seatLabels []string, totalAmount int) *Booking {
	return &Booking{
		ShowID:      showID,
		UserID:      userID,
		SeatLabels:  seatLabels,
		TotalAmount: totalAmount,
		Status:      StatusConfirmed,
		CreatedAt:   time.Now(),
	}
}

// SeatCount は予約した座席数を返す
func (b *Booking) SeatCount() int {
	return len(b.SeatLabels)
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.ShowID == "" {
		return ErrShowIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return ValidateSelection(b.SeatLabels)
}

// ValidateSelection は座席選択が空でなく、重複がないことを検証する
func ValidateSelection(labels []string) error {
	if len(labels) == 0 {
		return ErrEmptySelection
	}
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			return ErrBlankSeatLabel
		}
		if _, ok := seen[l]; ok {
			return ErrDuplicateSeat
		}
		seen[l] = struct{}{}
	}
	return nil
}

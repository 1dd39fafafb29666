package seat

import "time"

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusHeld      Status = "held"
	StatusBooked    Status = "booked"
)

// Seat は上映ごとの座席を表す
// 座席は上映が所有し、BookingID は予約への逆参照にすぎない
type Seat struct {
	ID        string
	ShowID    string
	Label     string
	Status    Status
	Price     *int // 座席ごとの価格（nil の場合は上映価格）
	BookingID *string
	HeldBy    *string
	HeldUntil *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(showID, label string, price *int) *Seat {
	now := time.Now()
	return &Seat{
		ShowID:    showID,
		Label:     label,
		Status:    StatusAvailable,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAvailable は座席が空席かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// IsHoldExpired は仮押さえの期限が切れているかを返す
func (s *Seat) IsHoldExpired(now time.Time) bool {
	return s.Status == StatusHeld && s.HeldUntil != nil && s.HeldUntil.Before(now)
}

// IsClaimableBy は userID が now 時点でこの座席を予約できるかを返す
// 空席、本人の仮押さえ、期限切れの仮押さえのいずれかなら予約可能
func (s *Seat) IsClaimableBy(userID string, now time.Time) bool {
	switch s.Status {
	case StatusAvailable:
		return true
	case StatusHeld:
		if s.HeldBy != nil && *s.HeldBy == userID {
			return true
		}
		return s.IsHoldExpired(now)
	default:
		return false
	}
}

// EffectivePrice は座席に適用される価格を返す
func (s *Seat) EffectivePrice(showPrice int) int {
	if s.Price != nil {
		return *s.Price
	}
	return showPrice
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.ShowID == "" {
		return ErrShowIDRequired
	}
	if err := ValidateLabel(s.Label); err != nil {
		return err
	}
	if s.Price != nil && *s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

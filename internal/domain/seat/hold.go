package seat

import "time"

// Hold はユーザーによる座席の仮押さえ
type Hold struct {
	ShowID     string
	UserID     string
	SeatLabels []string
	ExpiresAt  time.Time
}

package rabbitmq

import "time"

// RoutingKeyBookingCreated は予約確定イベントのルーティングキー
const RoutingKeyBookingCreated = "booking.created"

// BookingCreatedEvent は予約確定時に配信されるメッセージ
type BookingCreatedEvent struct {
	BookingID   string    `json:"booking_id"`
	ShowID      string    `json:"show_id"`
	UserID      string    `json:"user_id"`
	SeatLabels  []string  `json:"seat_labels"`
	TotalAmount int       `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

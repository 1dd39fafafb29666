package show

import (
	"time"
)

// ShowTimeLayout は上映開始時刻の書式
const ShowTimeLayout = "15:04"

// Show は1回の上映を表す（スケジュール後は不変）
type Show struct {
	ID        string
	MovieID   string
	Date      time.Time
	Time      string
	Price     int
	CreatedAt time.Time
}

// NewShow は新しい上映を作成する
func NewShow(movieID string, date time.Time, showTime string, price int) *Show {
	return &Show{
		MovieID:   movieID,
		Date:      truncateToDate(date),
		Time:      showTime,
		Price:     price,
		CreatedAt: time.Now(),
	}
}

// Validate は上映の検証を行う
func (s *Show) Validate() error {
	if s.MovieID == "" {
		return ErrMovieIDRequired
	}
	if s.Date.IsZero() {
		return ErrShowDateRequired
	}
	if _, err := time.Parse(ShowTimeLayout, s.Time); err != nil {
		return ErrInvalidShowTime
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// StartsAt は上映日と開始時刻を合成した日時を返す
func (s *Show) StartsAt(loc *time.Location) time.Time {
	t, err := time.Parse(ShowTimeLayout, s.Time)
	if err != nil {
		return s.Date
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func truncateToDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

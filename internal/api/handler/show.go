package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-seat-booking/internal/application"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
)

type ShowHandler struct {
	shows ShowServiceInterface
	seats SeatServiceInterface
}

func NewShowHandler(shows ShowServiceInterface, seats SeatServiceInterface) *ShowHandler {
	return &ShowHandler{shows: shows, seats: seats}
}

type SeatRequest struct {
	Label string `json:"label" validate:"required,seatlabel" example:"A1"`
	Price *int   `json:"price,omitempty" validate:"omitempty,gte=0" example:"400"`
}

// CreateShowRequest は seats か rows × seats_per_row のどちらかで座席を指定する
type CreateShowRequest struct {
	MovieID     string        `json:"movie_id" validate:"required" example:"tt0111161"`
	Date        string        `json:"date" validate:"required,showdate" example:"2026-03-01"`
	Time        string        `json:"time" validate:"required,showtime" example:"19:30"`
	Price       int           `json:"price" validate:"gte=0" example:"250"`
	Seats       []SeatRequest `json:"seats,omitempty" validate:"omitempty,dive"`
	Rows        int           `json:"rows,omitempty" validate:"gte=0,lte=26" example:"10"`
	SeatsPerRow int           `json:"seats_per_row,omitempty" validate:"gte=0" example:"20"`
}

type ShowResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	MovieID   string    `json:"movie_id" example:"tt0111161"`
	Date      string    `json:"date" example:"2026-03-01"`
	Time      string    `json:"time" example:"19:30"`
	Price     int       `json:"price" example:"250"`
	SeatCount int       `json:"seat_count,omitempty" example:"200"`
	CreatedAt time.Time `json:"created_at"`
}

type SeatResponse struct {
	Label     string     `json:"label" example:"A1"`
	Status    string     `json:"status" example:"available"`
	Price     int        `json:"price" example:"250"`
	HeldUntil *time.Time `json:"held_until,omitempty"`
}

type AvailableSeatsResponse struct {
	ShowID string   `json:"show_id"`
	Seats  []string `json:"seats"`
}

func toShowResponse(s *show.Show) ShowResponse {
	return ShowResponse{
		ID: s.ID, MovieID: s.MovieID, Date: s.Date.Format(time.DateOnly),
		Time: s.Time, Price: s.Price, CreatedAt: s.CreatedAt,
	}
}

func toSeatResponse(s *seat.Seat, showPrice int) SeatResponse {
	return SeatResponse{
		Label: s.Label, Status: string(s.Status),
		Price: s.EffectivePrice(showPrice), HeldUntil: s.HeldUntil,
	}
}

// Create godoc
// @Summary 上映を作成
// @Description 上映と座席在庫を1つのトランザクションで作成します
// @Tags shows
// @Accept json
// @Produce json
// @Param request body CreateShowRequest true "上映情報"
// @Success 201 {object} ShowResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /shows [post]
func (h *ShowHandler) Create(c echo.Context) error {
	var req CreateShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効な上映日")
	}

	seats := make([]application.SeatInput, len(req.Seats))
	for i, s := range req.Seats {
		seats[i] = application.SeatInput{Label: s.Label, Price: s.Price}
	}

	sh, created, err := h.shows.ScheduleShow(c.Request().Context(), application.ScheduleShowInput{
		MovieID: req.MovieID, Date: date, Time: req.Time, Price: req.Price,
		Seats: seats, Rows: req.Rows, SeatsPerRow: req.SeatsPerRow,
	})
	if err != nil {
		return toHTTPError(err)
	}
	resp := toShowResponse(sh)
	resp.SeatCount = len(created)
	return c.JSON(http.StatusCreated, resp)
}

// GetByID godoc
// @Summary 上映を取得
// @Tags shows
// @Produce json
// @Param id path string true "上映ID"
// @Success 200 {object} ShowResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /shows/{id} [get]
func (h *ShowHandler) GetByID(c echo.Context) error {
	sh, err := h.shows.GetShow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toShowResponse(sh))
}

// ListSeats godoc
// @Summary 座席一覧を取得
// @Description available=true の場合は空席ラベルのみを昇順で返します
// @Tags seats
// @Produce json
// @Param id path string true "上映ID"
// @Param available query bool false "空席のみ"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /shows/{id}/seats [get]
func (h *ShowHandler) ListSeats(c echo.Context) error {
	ctx := c.Request().Context()
	showID := c.Param("id")

	if available, _ := strconv.ParseBool(c.QueryParam("available")); available {
		labels, err := h.seats.ListAvailable(ctx, showID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, AvailableSeatsResponse{ShowID: showID, Seats: labels})
	}

	sh, err := h.shows.GetShow(ctx, showID)
	if err != nil {
		return toHTTPError(err)
	}
	seats, err := h.seats.ListSeats(ctx, showID)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s, sh.Price)
	}
	return c.JSON(http.StatusOK, resp)
}

// CountAvailable godoc
// @Summary 空席数を取得
// @Tags seats
// @Produce json
// @Param id path string true "上映ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} api.ErrorResponse
// @Router /shows/{id}/seats/available/count [get]
func (h *ShowHandler) CountAvailable(c echo.Context) error {
	count, err := h.seats.CountAvailable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"available_count": count})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-seat-booking/internal/application"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
)

type BookingHandler struct {
	bookings BookingServiceInterface
	checkout CheckoutServiceInterface
}

func NewBookingHandler(bookings BookingServiceInterface, checkout CheckoutServiceInterface) *BookingHandler {
	return &BookingHandler{bookings: bookings, checkout: checkout}
}

type CreateBookingRequest struct {
	ShowID     string   `json:"show_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatLabels []string `json:"seats" validate:"required,min=1,dive,seatlabel" example:"A1,A2"`
}

type BookingResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShowID      string    `json:"show_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID      string    `json:"user_id" example:"user-123"`
	SeatLabels  []string  `json:"seats" example:"A1,A2"`
	TotalAmount int       `json:"total_amount" example:"500"`
	Status      string    `json:"status" example:"confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

type CheckoutResponse struct {
	BookingID string `json:"booking_id"`
	URL       string `json:"url"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, ShowID: b.ShowID, UserID: b.UserID,
		SeatLabels: b.SeatLabels, TotalAmount: b.TotalAmount,
		Status: string(b.Status), CreatedAt: b.CreatedAt,
	}
}

// Create godoc
// @Summary 座席を予約
// @Description 指定座席をまとめて予約します。1席でも確保できなければ何も変更しません
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が予約済み"
// @Failure 503 {object} api.ErrorResponse "再試行可能"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	// 空の選択と重複はサービスで判定する
	if len(req.SeatLabels) > 0 {
		if err := c.Validate(&req); err != nil {
			return err
		}
	}

	b, err := h.bookings.Reserve(c.Request().Context(), application.ReserveInput{
		ShowID: req.ShowID, UserID: userID, SeatLabels: req.SeatLabels,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.bookings.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// ListByUser godoc
// @Summary ユーザーの予約一覧を取得
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.bookings.ListUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// Checkout godoc
// @Summary 決済リンクを発行
// @Description 予約金額の決済ページURLを返します。決済の成否は予約に影響しません
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} CheckoutResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Router /bookings/{id}/checkout [post]
func (h *BookingHandler) Checkout(c echo.Context) error {
	id := c.Param("id")
	url, err := h.checkout.CreatePaymentLink(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, CheckoutResponse{BookingID: id, URL: url})
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-seat-booking/internal/application"
)

type HoldHandler struct {
	holds HoldServiceInterface
}

func NewHoldHandler(holds HoldServiceInterface) *HoldHandler {
	return &HoldHandler{holds: holds}
}

type HoldRequest struct {
	ShowID     string   `json:"show_id" validate:"required"`
	SeatLabels []string `json:"seats" validate:"required,min=1,dive,seatlabel" example:"A1,A2"`
}

type HoldResponse struct {
	ShowID     string    `json:"show_id"`
	UserID     string    `json:"user_id"`
	SeatLabels []string  `json:"seats"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type ReleaseHoldResponse struct {
	Released int `json:"released"`
}

func (h *HoldHandler) bind(c echo.Context) (string, *HoldRequest, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return "", nil, err
	}
	var req HoldRequest
	if err := c.Bind(&req); err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if len(req.SeatLabels) > 0 {
		if err := c.Validate(&req); err != nil {
			return "", nil, err
		}
	}
	return userID, &req, nil
}

// Create godoc
// @Summary 座席を仮押さえ
// @Description 指定座席を一定時間仮押さえします。本人の仮押さえは期限が延長されます
// @Tags holds
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body HoldRequest true "仮押さえ情報"
// @Success 201 {object} HoldResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /holds [post]
func (h *HoldHandler) Create(c echo.Context) error {
	userID, req, err := h.bind(c)
	if err != nil {
		return err
	}
	hold, err := h.holds.Hold(c.Request().Context(), application.HoldInput{
		ShowID: req.ShowID, UserID: userID, SeatLabels: req.SeatLabels,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, HoldResponse{
		ShowID: hold.ShowID, UserID: hold.UserID,
		SeatLabels: hold.SeatLabels, ExpiresAt: hold.ExpiresAt,
	})
}

// Release godoc
// @Summary 仮押さえを解放
// @Tags holds
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body HoldRequest true "解放する座席"
// @Success 200 {object} ReleaseHoldResponse
// @Router /holds [delete]
func (h *HoldHandler) Release(c echo.Context) error {
	userID, req, err := h.bind(c)
	if err != nil {
		return err
	}
	n, err := h.holds.ReleaseHold(c.Request().Context(), req.ShowID, userID, req.SeatLabels)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ReleaseHoldResponse{Released: n})
}

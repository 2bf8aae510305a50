package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rewear-app/exchange-api/internal/api/metrics"
	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// ExchangeHandler exposes the redeem and swap protocols.
type ExchangeHandler struct {
	service ports.ExchangeService
}

func NewExchangeHandler(service ports.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{service: service}
}

// Redeem spends the caller's points on a listing.
//
// @Summary      Redeem a listing with points
// @Tags         exchange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      redeemRequest  true  "Item to redeem"
// @Success      200   {object}  redeemResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /exchange/redeem [post]
func (h *ExchangeHandler) Redeem(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	result, err := h.service.Redeem(c.Request().Context(), userID, req.ItemID)
	if err != nil {
		metrics.TradeErrorsTotal.WithLabelValues(tradeErrorReason(err)).Inc()
		return err
	}
	metrics.TradesCompletedTotal.WithLabelValues(string(domain.TradeRedeem)).Inc()
	metrics.TradeDuration.WithLabelValues(string(domain.TradeRedeem)).Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, redeemResponse{
		Trade: result.Trade,
		User:  result.User,
		Item:  result.Item,
	})
}

// ProposeSwap opens a pending swap of one of the caller's listings for
// another user's listing.
//
// @Summary      Propose a swap
// @Tags         exchange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      proposeSwapRequest  true  "Swap proposal"
// @Success      201   {object}  tradeResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /exchange/swaps [post]
func (h *ExchangeHandler) ProposeSwap(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req proposeSwapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	trade, err := h.service.ProposeSwap(c.Request().Context(), userID, req.ItemID, req.OfferedItemID)
	if err != nil {
		metrics.TradeErrorsTotal.WithLabelValues(tradeErrorReason(err)).Inc()
		return err
	}

	return c.JSON(http.StatusCreated, tradeResponse{Trade: trade})
}

// ConfirmSwap completes a proposed swap. Only the recorded partner may call
// this.
//
// @Summary      Confirm a proposed swap
// @Tags         exchange
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Trade ID"
// @Success      200  {object}  tradeResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /exchange/swaps/{id}/confirm [post]
func (h *ExchangeHandler) ConfirmSwap(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	start := time.Now()
	trade, err := h.service.ConfirmSwap(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		metrics.TradeErrorsTotal.WithLabelValues(tradeErrorReason(err)).Inc()
		return err
	}
	metrics.TradesCompletedTotal.WithLabelValues(string(domain.TradeSwap)).Inc()
	metrics.TradeDuration.WithLabelValues(string(domain.TradeSwap)).Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, tradeResponse{Trade: trade})
}

// tradeErrorReason buckets protocol failures for the error counter.
func tradeErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, domain.ErrStaleItemState):
		return "stale_item"
	case errors.Is(err, domain.ErrItemUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "other"
	}
}

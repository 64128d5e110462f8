package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	checkoutRequest "github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/dto/checkout/request"
	checkoutResponse "github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/dto/checkout/response"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/checkout"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	Usecase checkout.CheckoutUsecase
}

func NewCheckoutHandler(uc checkout.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{Usecase: uc}
}

// Create handles POST /checkout/:order_id.
func (h *CheckoutHandler) Create(c *gin.Context) {
	orderID := c.Param("order_id")
	var req checkoutRequest.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, checkoutResponse.ErrorResponse{Error: err.Error()})
		return
	}

	url, err := h.Usecase.CreateCheckout(c.Request.Context(), orderID, req.SuccessURL, req.CancelURL)
	if err != nil {
		writeError(c, orderID, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse.CheckoutResponse{OrderID: orderID, URL: url})
}

// Return handles GET /checkout/:order_id/return.
func (h *CheckoutHandler) Return(c *gin.Context) {
	orderID := c.Param("order_id")
	var query checkoutRequest.ReturnQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, checkoutResponse.ErrorResponse{Error: err.Error()})
		return
	}

	err := h.Usecase.HandleReturn(c.Request.Context(), orderID, domain.CheckoutValidation{
		HmacAlg:   query.HmacAlg,
		HmacInput: query.HmacInput,
		HmacKeyID: query.HmacKeyID,
		HmacValue: query.HmacValue,
	})
	if err != nil {
		writeError(c, orderID, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse.ReturnResponse{OrderID: orderID, Status: string(domain.StatusAwaitingConfirmation)})
}

func writeError(c *gin.Context, orderID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCheckout):
		status = http.StatusBadRequest
	default:
		slog.Error("checkout request failed", "order_id", orderID, "error", err.Error())
	}
	c.JSON(status, checkoutResponse.ErrorResponse{Error: err.Error()})
}

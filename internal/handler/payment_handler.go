package handler

import (
	"net/http"

	"pharmacy-backend/internal/middleware"
	"pharmacy-backend/internal/service"
	"pharmacy-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api", middleware.RequireDoctor())
	{
		payments.PUT("/orders/:id/lines/:lineId/price", h.SavePrice)
		payments.POST("/orders/:id/payment-method", h.SelectMethod)
		payments.POST("/orders/:id/confirm", h.ConfirmPayment)
	}
}

// Price is a pointer so a missing field is rejected instead of
// silently binding to 0.00.
type savePriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

type selectMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=CASH UPI"`
}

type confirmPaymentRequest struct {
	Method string  `json:"method" binding:"required,oneof=CASH UPI"`
	Amount float64 `json:"amount" binding:"required"`
}

// SavePrice confirms or edits one line's unit price
// @Summary      Save line price
// @Description  Sets a line's unit price; editable until the order settles. Recomputes the order's payment state.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Order ID"
// @Param        lineId   path      string            true  "Order Line ID"
// @Param        payload  body      savePriceRequest  true  "Price Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/lines/{lineId}/price [put]
func (h *PaymentHandler) SavePrice(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req savePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.paymentService.SetLinePrice(
		c.Request.Context(), doctorID, c.Param("id"), c.Param("lineId"), decimal.NewFromFloat(*req.Price))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// SelectMethod chooses cash or UPI for a fully priced order
// @Summary      Select payment method
// @Description  CASH becomes immediately confirmable; UPI requires a clinic address and fetches a QR code from the payment provider
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Order ID"
// @Param        payload  body      selectMethodRequest  true  "Method Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/orders/{id}/payment-method [post]
func (h *PaymentHandler) SelectMethod(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req selectMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.paymentService.SelectMethod(c.Request.Context(), doctorID, c.Param("id"), req.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmPayment settles the order
// @Summary      Confirm payment
// @Description  Settles the order if the amount matches the freshly computed total. Idempotent: confirming a settled order is a no-op success.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Order ID"
// @Param        payload  body      confirmPaymentRequest  true  "Confirm Payload"
// @Success      200      {object}  response.Response{data=service.ConfirmPaymentResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/confirm [post]
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.paymentService.ConfirmPayment(
		c.Request.Context(), doctorID, c.Param("id"), req.Method, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

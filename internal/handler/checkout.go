package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkoutbridge/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout sessions.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CreateCheckoutRequest is the HTTP request body for creating a checkout session.
type CreateCheckoutRequest struct {
	OrderID   int64 `json:"orderId" binding:"required,gt=0"`
	AmountJPY int64 `json:"amountJpy" binding:"required,gt=0"`
}

// CreateCheckoutResponse is the HTTP response for a created session.
type CreateCheckoutResponse struct {
	OK        bool   `json:"ok"`
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CheckoutStatusResponse is the HTTP response for a session status lookup.
type CheckoutStatusResponse struct {
	OK            bool   `json:"ok"`
	OrderID       string `json:"orderId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
}

// CreateCheckout handles POST /api/create-checkout
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: bindingMessage(err)})
		return
	}

	session, err := h.checkoutService.CreateCheckout(c.Request.Context(), service.CreateCheckoutRequest{
		OrderID: req.OrderID,
		Amount:  req.AmountJPY,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CreateCheckoutResponse{
		OK:        true,
		URL:       session.URL,
		SessionID: session.ID,
	})
}

// GetCheckoutStatus handles GET /api/checkout-status?cs=
func (h *CheckoutHandler) GetCheckoutStatus(c *gin.Context) {
	status, err := h.checkoutService.GetStatus(c.Request.Context(), c.Query("cs"))
	if err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	respondJSON(c, http.StatusOK, CheckoutStatusResponse{
		OK:            true,
		OrderID:       status.OrderID,
		Amount:        status.Amount,
		Currency:      status.Currency,
		PaymentStatus: status.PaymentStatus,
		Status:        status.Status,
	})
}

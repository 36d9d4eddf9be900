package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
)

// Handler exposes the payment flows over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the payment endpoints. The finalize endpoint lives
// outside the API group because external gateways redirect customers to it.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, root *gin.Engine) {
	payments := api.Group("/payment")
	{
		payments.POST("/order/:orderId/transaction", h.CreateTransaction)
		payments.POST("/order/:orderId/pay", h.Pay)
		payments.POST("/order/:orderId/recurring", h.Recurring)
		payments.POST("/validate", h.Validate)
	}
	root.GET("/payment/finalize-transaction", h.Finalize)
}

// CreateTransaction opens a new transaction for an order.
// POST /api/v1/payment/order/:orderId/transaction
func (h *Handler) CreateTransaction(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		h.respondError(c, apperrors.BadRequest("invalid order id"))
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest("invalid request body"))
		return
	}
	methodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		h.respondError(c, apperrors.BadRequest("invalid payment method id"))
		return
	}

	tx, err := h.service.OpenTransaction(c.Request.Context(), orderID, methodID, req.Amount, req.Currency, req.Validation)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": tx.ID,
		"status":         tx.Status,
	})
}

// Pay starts the payment for an order.
// POST /api/v1/payment/order/:orderId/pay
func (h *Handler) Pay(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		h.respondError(c, apperrors.BadRequest("invalid order id"))
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	resp, err := h.service.Pay(c.Request.Context(), orderID, &req, httpRequest(c), channelContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize confirms a payment after the customer returned from the external
// gateway. Structural token failures answer with JSON; once the token yields
// return targets the customer is redirected there, carrying the error-code
// query parameter on failure.
// GET /payment/finalize-transaction?_token=...
func (h *Handler) Finalize(c *gin.Context) {
	bearer := c.Query("_token")
	if bearer == "" {
		h.respondError(c, NewInvalidTokenError(nil))
		return
	}

	result, err := h.service.Finalize(c.Request.Context(), bearer, httpRequest(c), channelContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Successful() {
		if result.FinishURL == "" {
			c.JSON(http.StatusOK, gin.H{"transaction_id": result.TransactionID})
			return
		}
		c.Redirect(http.StatusFound, result.FinishURL)
		return
	}

	target := result.ErrorURL
	if target == "" {
		target = result.FinishURL
	}
	if target == "" {
		h.respondError(c, result.Err)
		return
	}
	code := apperrors.ErrorCode(result.Err, CodePaymentProcessError)
	c.Redirect(http.StatusFound, appendErrorCode(target, code))
}

// Validate checks payment-specific data before an order is placed.
// POST /api/v1/payment/validate
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	validation, err := h.service.Validate(c.Request.Context(), req.cart(), req.Data, channelContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"validation": validation})
}

// Recurring charges the order's stored payment method without customer
// presence.
// POST /api/v1/payment/order/:orderId/recurring
func (h *Handler) Recurring(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		h.respondError(c, apperrors.BadRequest("invalid order id"))
		return
	}

	if err := h.service.Recurring(c.Request.Context(), orderID, channelContext(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.GetStatusCode(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, appErr.ToResponse())
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("unhandled payment error", zap.Error(err))
	}
	c.JSON(status, apperrors.ErrorResponse{Error: apperrors.ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}})
}

// CreateTransactionRequest is the inbound payload for opening a transaction.
// Validation carries the struct a preceding validate call returned; it travels
// with the transaction to the provider.
type CreateTransactionRequest struct {
	PaymentMethodID string         `json:"payment_method_id" binding:"required"`
	Amount          int64          `json:"amount" binding:"required"`
	Currency        string         `json:"currency" binding:"required"`
	Validation      map[string]any `json:"validation"`
}

// ValidateRequest is the inbound payload of the validate flow.
type ValidateRequest struct {
	CartToken    string             `json:"cart_token"`
	CartTotal    int64              `json:"cart_total"`
	CartCurrency string             `json:"cart_currency"`
	Items        []ValidateCartItem `json:"items"`
	Data         map[string]any     `json:"data"`
}

// ValidateCartItem is a cart line in the validate payload.
type ValidateCartItem struct {
	Label     string `json:"label"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (r *ValidateRequest) cart() *domain.CartSnapshot {
	items := make([]domain.CartItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.CartItem{
			Label:     item.Label,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return &domain.CartSnapshot{
		Token:    r.CartToken,
		Items:    items,
		Total:    r.CartTotal,
		Currency: r.CartCurrency,
	}
}

// channelContext builds the sales-channel scope from request headers.
func channelContext(c *gin.Context) *domain.ChannelContext {
	channel := &domain.ChannelContext{
		Currency: c.GetHeader("X-Currency"),
	}
	if id, err := uuid.Parse(c.GetHeader("X-Sales-Channel-Id")); err == nil {
		channel.SalesChannelID = id
	}
	if id, err := uuid.Parse(c.GetHeader("X-Customer-Id")); err == nil {
		channel.CustomerID = &id
	}
	if id, err := uuid.Parse(c.GetHeader("X-Payment-Method-Id")); err == nil {
		channel.PaymentMethodID = id
	}
	return channel
}

// httpRequest flattens the inbound request into the provider-facing view.
// Query parameters win over form values on key collisions.
func httpRequest(c *gin.Context) *provider.Request {
	params := make(map[string]string)
	if err := c.Request.ParseForm(); err == nil {
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return &provider.Request{Params: params, RemoteIP: c.ClientIP()}
}

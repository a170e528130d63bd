package payment

import (
	"errors"
	"io"
	"net/http"

	"elearn/internal/pkg/gateway"
	"elearn/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type Handler struct {
	service *Service
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, loggerf: loggerf}
}

// RegisterPublicRoutes mounts the unauthenticated payment surface: the
// payment page is opened from a shareable link, and the webhook comes
// from the gateway.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments/details/:ref", h.PaymentInitData)
	rg.POST("/payments/verify", h.VerifyClientPayment)
	rg.POST("/payments/webhook", h.HandleWebhook)
	rg.GET("/payments/status", h.Status)
}

// PaymentInitData godoc
// @Summary      Checkout data for a payment link
// @Description  Returns the gateway order and checkout prefill for a booking reference; paid bookings short-circuit to their status
// @Tags         Payments
// @Produce      json
// @Router       /payments/details/{ref} [get]
func (h *Handler) PaymentInitData(c *gin.Context) {
	resp, err := h.service.PaymentInitData(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// VerifyClientPayment godoc
// @Summary      Verify a checkout callback
// @Description  Verifies the client-side payment signature and settles the booking exactly once
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Router       /payments/verify [post]
func (h *Handler) VerifyClientPayment(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	resp, err := h.service.VerifyClientPayment(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// HandleWebhook godoc
// @Summary      Gateway webhook
// @Description  Settles server-to-server payment notifications; everything past the signature check is acknowledged with 200
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Router       /payments/webhook [post]
func (h *Handler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable body")
		return
	}

	ack, err := h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(webhookSignatureHeader))
	if err != nil {
		// only a signature failure reaches here
		h.loggerf("level=warn msg=webhook signature rejected err=%v", err)
		response.Error(c, http.StatusBadRequest, "SIGNATURE_INVALID", "invalid webhook signature")
		return
	}
	c.JSON(http.StatusOK, ack)
}

// Status godoc
// @Summary      Payment status poll
// @Tags         Payments
// @Produce      json
// @Router       /payments/status [get]
func (h *Handler) Status(c *gin.Context) {
	ref := c.Query("ref")
	if ref == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "ref is required")
		return
	}
	resp, err := h.service.Status(c.Request.Context(), ref)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrSignature):
		response.Error(c, http.StatusBadRequest, "SIGNATURE_INVALID", err.Error())
	case errors.Is(err, gateway.ErrUnavailable):
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", "payment gateway unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

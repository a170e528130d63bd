package booking

import (
	"errors"
	"net/http"

	"elearn/internal/modules/pricing"
	"elearn/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

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

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.POST("/bookings/preview", h.PreviewPrice)
	rg.POST("/bookings/expire", h.ExpirePaymentLink)
	rg.GET("/bookings/statistics", h.Statistics)
}

// PreviewPrice godoc
// @Summary      Preview booking price
// @Description  Computes the price breakdown for a product/coupon/manual discount combination without creating anything
// @Tags         Bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /bookings/preview [post]
func (h *Handler) PreviewPrice(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	resp, err := h.service.PreviewPrice(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// CreateBooking godoc
// @Summary      Create a course booking
// @Description  Prices the product, persists an immutable booking snapshot and returns the shareable payment link
// @Tags         Bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	actor := actorFromContext(c)
	b, err := h.service.CreateBooking(c.Request.Context(), req, actor)
	if err != nil {
		h.loggerf("level=error msg=create booking failed actor_id=%d err=%v", actor.UserID, err)
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// ExpirePaymentLink godoc
// @Summary      Expire a payment link
// @Description  Marks the booking expired and clears its link; only the owning seller or an admin may do this
// @Tags         Bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /bookings/expire [post]
func (h *Handler) ExpirePaymentLink(c *gin.Context) {
	var req ExpireLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	actor := actorFromContext(c)
	b, err := h.service.ExpirePaymentLink(c.Request.Context(), req.BookingRef, actor)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"detail":      "Payment link expired.",
		"booking_ref": b.BookingRef,
	})
}

// Statistics godoc
// @Summary      Booking and revenue statistics
// @Description  Ledger-driven aggregates scoped to the caller's role
// @Tags         Bookings
// @Security     BearerAuth
// @Produce      json
// @Router       /bookings/statistics [get]
func (h *Handler) Statistics(c *gin.Context) {
	resp, err := h.service.Statistics(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var fieldErr *pricing.FieldError
	switch {
	case errors.As(err, &fieldErr):
		response.FieldError(c, http.StatusBadRequest, fieldErr.Field, fieldErr.Message)
	case errors.Is(err, pricing.ErrManualDiscountForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "Permission denied.")
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrBookingNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrAlreadyExpired), errors.Is(err, ErrNotAStudent), errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func actorFromContext(c *gin.Context) Actor {
	return Actor{
		UserID:           c.GetInt64("user_id"),
		Role:             c.GetString("role"),
		Name:             c.GetString("user_name"),
		AllowManualPrice: c.GetBool("allow_manual_price"),
	}
}

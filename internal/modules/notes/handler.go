package notes

import (
	"errors"
	"net/http"
	"strconv"

	"elearn/internal/pkg/gateway"
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
	rg.POST("/notes/purchases/initiate", h.InitiatePurchase)
	rg.GET("/notes/:id/access", h.CheckAccess)
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/notes/purchases/details/:ref", h.PaymentInitData)
	rg.POST("/notes/purchases/verify", h.VerifyClientPayment)
}

// InitiatePurchase godoc
// @Summary      Start a note purchase
// @Description  Opens (or reopens) the student's purchase for a note; free notes settle immediately
// @Tags         Notes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /notes/purchases/initiate [post]
func (h *Handler) InitiatePurchase(c *gin.Context) {
	var req InitiatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	actor := actorFromContext(c)
	resp, err := h.service.InitiatePurchase(c.Request.Context(), req, actor)
	if err != nil {
		h.loggerf("level=error msg=note purchase initiation failed actor_id=%d note_id=%d err=%v", actor.UserID, req.NoteID, err)
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// PaymentInitData godoc
// @Summary      Checkout data for a note purchase link
// @Tags         Notes
// @Produce      json
// @Router       /notes/purchases/details/{ref} [get]
func (h *Handler) PaymentInitData(c *gin.Context) {
	resp, err := h.service.PaymentInitData(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// VerifyClientPayment godoc
// @Summary      Verify a note purchase checkout callback
// @Tags         Notes
// @Accept       json
// @Produce      json
// @Router       /notes/purchases/verify [post]
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

// CheckAccess godoc
// @Summary      Check note access for the caller
// @Tags         Notes
// @Security     BearerAuth
// @Produce      json
// @Router       /notes/{id}/access [get]
func (h *Handler) CheckAccess(c *gin.Context) {
	noteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	decision, err := h.service.CanAccess(c.Request.Context(), noteID, actorFromContext(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, decision)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoteNotFound), errors.Is(err, ErrPurchaseNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "Permission denied.")
	case errors.Is(err, ErrAlreadyOwned), errors.Is(err, ErrNotPurchasable):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrSignature):
		response.Error(c, http.StatusBadRequest, "SIGNATURE_INVALID", err.Error())
	case errors.Is(err, gateway.ErrUnavailable):
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", "payment gateway unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func actorFromContext(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64("user_id"),
		Role:   c.GetString("role"),
		Name:   c.GetString("user_name"),
	}
}

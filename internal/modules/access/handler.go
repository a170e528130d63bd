package access

import (
	"errors"
	"net/http"
	"strconv"

	"elearn/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/access/grants", h.GrantManual)
	rg.POST("/access/grants/:id/deactivate", h.Deactivate)
	rg.GET("/access/grants", h.ListOwnGrants)
	rg.GET("/access/grants/students/:id", h.ListStudentGrants)
}

// GrantManual godoc
// @Summary      Manually grant note access
// @Description  Admin-issued grant with an optional expiry; nil means lifetime
// @Tags         Access
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /access/grants [post]
func (h *Handler) GrantManual(c *gin.Context) {
	var req GrantManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	grant, err := h.service.GrantManual(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, grant)
}

// Deactivate godoc
// @Summary      Revoke an access grant
// @Description  Flips the grant inactive; the row is kept for history
// @Tags         Access
// @Security     BearerAuth
// @Produce      json
// @Router       /access/grants/{id}/deactivate [post]
func (h *Handler) Deactivate(c *gin.Context) {
	grantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid grant id")
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), grantID, actorFromContext(c)); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"detail": "Access grant deactivated."})
}

// ListOwnGrants godoc
// @Summary      List the caller's access grants
// @Tags         Access
// @Security     BearerAuth
// @Produce      json
// @Router       /access/grants [get]
func (h *Handler) ListOwnGrants(c *gin.Context) {
	actor := actorFromContext(c)
	grants, err := h.service.ListGrants(c.Request.Context(), actor.UserID, actor)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

// ListStudentGrants godoc
// @Summary      List a student's access grants
// @Tags         Access
// @Security     BearerAuth
// @Produce      json
// @Router       /access/grants/students/{id} [get]
func (h *Handler) ListStudentGrants(c *gin.Context) {
	studentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid student id")
		return
	}

	grants, err := h.service.ListGrants(c.Request.Context(), studentID, actorFromContext(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "Permission denied.")
	case errors.Is(err, ErrGrantNotFound), errors.Is(err, ErrNoteNotFound):
		response.NotFound(c, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func actorFromContext(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64("user_id"),
		Role:   c.GetString("role"),
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// SubstituteHandler manages substitution endpoints.
type SubstituteHandler struct {
	service *service.SubstituteService
	metrics *service.MetricsService
}

// NewSubstituteHandler constructs handler.
func NewSubstituteHandler(svc *service.SubstituteService, metrics *service.MetricsService) *SubstituteHandler {
	return &SubstituteHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Start a substitution and transfer the teacher's sessions
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param payload body service.CreateSubstituteRequest true "Substitute payload"
// @Success 201 {object} response.Envelope
// @Router /substitutes [post]
func (h *SubstituteHandler) Create(c *gin.Context) {
	var req service.CreateSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.CreateSubstitute(c.Request.Context(), req)
	if err != nil {
		observeConflict(h.metrics, err)
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// End godoc
// @Summary End an active substitution and restore its sessions
// @Tags Substitutes
// @Produce json
// @Param id path string true "Substitute ID"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id}/end [post]
func (h *SubstituteHandler) End(c *gin.Context) {
	record, err := h.service.EndSubstitution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ProcessExpired godoc
// @Summary Expire overdue substitutions and restore their sessions
// @Tags Substitutes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /substitutes/process-expired [post]
func (h *SubstituteHandler) ProcessExpired(c *gin.Context) {
	expired, err := h.service.ProcessExpiredSubstitutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExpiredSubstitutes(len(expired))
	response.JSON(c, http.StatusOK, expired, nil)
}

// List godoc
// @Summary List all substitute records
// @Tags Substitutes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /substitutes [get]
func (h *SubstituteHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListActive godoc
// @Summary List active substitute records
// @Tags Substitutes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /substitutes/active [get]
func (h *SubstituteHandler) ListActive(c *gin.Context) {
	records, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Get godoc
// @Summary Get a substitute record
// @Tags Substitutes
// @Produce json
// @Param id path string true "Substitute ID"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id} [get]
func (h *SubstituteHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// GetActiveForTeacher godoc
// @Summary Get the active substitute tracking a teacher
// @Tags Substitutes
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/substitute [get]
func (h *SubstituteHandler) GetActiveForTeacher(c *gin.Context) {
	record, err := h.service.GetActiveSubstituteForTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ListForTeacher godoc
// @Summary List a teacher's substitution history
// @Tags Substitutes
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/substitutes [get]
func (h *SubstituteHandler) ListForTeacher(c *gin.Context) {
	records, err := h.service.ListForTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

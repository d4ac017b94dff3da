package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type BadgeHandler struct {
	BaseHandler
	service services.BadgeService
}

func NewBadgeHandler(service services.BadgeService, logger utils.Logger) *BadgeHandler {
	return &BadgeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// @Router /badges [post]
func (h *BadgeHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.BadgeCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	badge, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, badge, "Badge created")
}

// @Param active query bool false "Only active badges"
// @Router /badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	badges, err := h.service.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, badges)
}

// @Router /badges/{id} [get]
func (h *BadgeHandler) Get(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	badge, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, badge)
}

// @Router /badges/{id} [put]
func (h *BadgeHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.BadgeUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	badge, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, badge)
}

// Delete refuses badges that have been awarded.
// @Router /badges/{id} [delete]
func (h *BadgeHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Badge deleted")
}

// @Router /badges/{id}/award [post]
func (h *BadgeHandler) Award(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.AwardBadgeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	awarded, err := h.service.Award(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, awarded, "Badge awarded")
}

// @Router /student-badges/{id} [delete]
func (h *BadgeHandler) Revoke(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Badge revoked")
}

// @Router /students/{id}/badges [get]
func (h *BadgeHandler) StudentBadges(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	badges, err := h.service.StudentBadges(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, badges)
}

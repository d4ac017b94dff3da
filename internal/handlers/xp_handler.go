package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type XPHandler struct {
	BaseHandler
	service services.XPService
}

func NewXPHandler(service services.XPService, logger utils.Logger) *XPHandler {
	return &XPHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== LEVELS =====

// ListLevels returns the level table ordered by level.
// @Router /levels [get]
func (h *XPHandler) ListLevels(c *gin.Context) {
	levels, err := h.service.ListLevels(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, levels)
}

// ComputeLevel resolves the level for an arbitrary XP total.
// @Router /levels/compute [get]
func (h *XPHandler) ComputeLevel(c *gin.Context) {
	xp, err := strconv.Atoi(c.Query("xp"))
	if err != nil || xp < 0 {
		h.fail(c, http.StatusBadRequest, "xp must be a non-negative integer", c.Query("xp"))
		return
	}

	info, err := h.service.ComputeLevel(c.Request.Context(), xp)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, info)
}

// @Router /levels [post]
func (h *XPHandler) CreateLevel(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.LevelCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	level, err := h.service.CreateLevel(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, level, "Level created")
}

// @Router /levels/{level} [put]
func (h *XPHandler) UpdateLevel(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	number := h.parseIDParam(c, "level")
	if number == 0 {
		return
	}
	var req models.LevelUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	level, err := h.service.UpdateLevel(c.Request.Context(), p, int(number), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, level)
}

// @Router /levels/{level} [delete]
func (h *XPHandler) DeleteLevel(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	number := h.parseIDParam(c, "level")
	if number == 0 {
		return
	}

	if err := h.service.DeleteLevel(c.Request.Context(), p, int(number)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Level deleted")
}

// ===== XP =====

// Leaderboard ranks students by total XP, optionally within one class.
// @Param limit query int false "Number of entries (default: 10, max: 100)"
// @Param class_id query int false "Restrict to a class"
// @Router /leaderboard [get]
func (h *XPHandler) Leaderboard(c *gin.Context) {
	limit := h.queryInt(c, "limit", defaultLeaderboardLimit)
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	classID, ok := h.queryUint(c, "class_id")
	if !ok {
		return
	}

	entries, err := h.service.Leaderboard(c.Request.Context(), limit, classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, entries)
}

// @Router /students/{id}/progress [get]
func (h *XPHandler) StudentProgress(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	progress, err := h.service.GetStudentProgress(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, progress)
}

// GrantXP is the manual grant used by staff outside grading and challenges.
// @Router /xp/grant [post]
func (h *XPHandler) GrantXP(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.GrantXPRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Granting XP", "student_id", req.StudentID, "amount", req.Amount)
	result, err := h.service.ManualGrant(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type ChallengeHandler struct {
	BaseHandler
	service services.ChallengeService
	access  services.AccessPolicy
}

func NewChallengeHandler(service services.ChallengeService, access services.AccessPolicy, logger utils.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		access:      access,
	}
}

type joinChallengeRequest struct {
	StudentID uint `json:"student_id"`
}

// @Router /challenges [post]
func (h *ChallengeHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.ChallengeCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	challenge, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, challenge, "Challenge created")
}

// @Param is_active query bool false "Filter by active flag"
// @Param target_type query string false "ALL_STUDENTS or GRADE_n"
// @Router /challenges [get]
func (h *ChallengeHandler) List(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	createdBy, ok := h.queryUint(c, "created_by")
	if !ok {
		return
	}

	filters := repositories.ChallengeFilters{
		TargetType: queryString[models.ChallengeTargetType](c, "target_type"),
		CreatedBy:  createdBy,
	}
	switch c.Query("is_active") {
	case "true":
		active := true
		filters.IsActive = &active
	case "false":
		active := false
		filters.IsActive = &active
	}

	page, err := h.service.List(c.Request.Context(), filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /challenges/{id} [get]
func (h *ChallengeHandler) Get(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	challenge, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, challenge)
}

// @Router /challenges/{id} [put]
func (h *ChallengeHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.ChallengeUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	challenge, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, challenge)
}

// @Router /challenges/{id} [delete]
func (h *ChallengeHandler) Delete(c *gin.Context) {
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
	h.message(c, "Challenge deleted")
}

// ===== PARTICIPATION =====

// Join enrols a student. Students join themselves; staff name the student in the body.
// @Router /challenges/{id}/join [post]
func (h *ChallengeHandler) Join(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req joinChallengeRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	studentID := req.StudentID
	if studentID == 0 {
		if !p.IsStudent() {
			h.fail(c, http.StatusBadRequest, "student_id is required", nil)
			return
		}
		if studentID, ok = h.selfStudentID(c, h.access, p); !ok {
			return
		}
	}

	participant, err := h.service.Join(c.Request.Context(), p, id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, participant, "Joined challenge")
}

// @Router /challenges/{id}/enroll [post]
func (h *ChallengeHandler) EnrollTargets(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.service.EnrollTargets(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// @Router /challenges/{id}/complete [post]
func (h *ChallengeHandler) CompleteBulk(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Completing challenge for all participants", "challenge_id", id)
	result, err := h.service.CompleteBulk(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// @Param status query string false "JOINED or COMPLETED"
// @Router /challenges/{id}/participants [get]
func (h *ChallengeHandler) Participants(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	participants, err := h.service.Participants(c.Request.Context(), id, queryString[models.ParticipantStatus](c, "status"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, participants)
}

// @Router /challenges/{id}/stats [get]
func (h *ChallengeHandler) Stats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, stats)
}

// @Router /challenge-participants/{id}/progress [put]
func (h *ChallengeHandler) UpdateProgress(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.ChallengeProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	participant, err := h.service.UpdateProgress(c.Request.Context(), p, id, req.Progress)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, participant)
}

// @Router /challenge-participants/{id}/complete [post]
func (h *ChallengeHandler) MarkCompleted(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	participant, err := h.service.MarkCompleted(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, participant)
}

// @Router /students/{id}/challenges [get]
func (h *ChallengeHandler) StudentChallenges(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	participations, err := h.service.StudentChallenges(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, participations)
}

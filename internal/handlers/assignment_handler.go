package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type AssignmentHandler struct {
	BaseHandler
	service services.AssignmentService
	access  services.AccessPolicy
}

func NewAssignmentHandler(service services.AssignmentService, access services.AccessPolicy, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		access:      access,
	}
}

// CreateAssignment creates an assignment and one NOT_SUBMITTED row per student of the class.
// @Summary Create assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body models.AssignmentCreateRequest true "Assignment data"
// @Success 201 {object} models.APIResponse{data=models.Assignment}
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.AssignmentCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating assignment", "class_id", req.ClassID)
	assignment, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, assignment, "Assignment created")
}

// @Router /assignments/{id} [get]
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	assignment, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, assignment)
}

// ListAssignments lists assignments visible to the caller.
// @Param class_id query int false "Class"
// @Param subject_id query int false "Subject"
// @Param status query string false "DRAFT, PUBLISHED or CLOSED"
// @Param type query string false "Assignment type"
// @Router /assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	classID, ok := h.queryUint(c, "class_id")
	if !ok {
		return
	}
	subjectID, ok := h.queryUint(c, "subject_id")
	if !ok {
		return
	}
	teacherID, ok := h.queryUint(c, "teacher_id")
	if !ok {
		return
	}

	filters := repositories.AssignmentFilters{
		TeacherID: teacherID,
		ClassID:   classID,
		SubjectID: subjectID,
		Status:    queryString[models.AssignmentStatus](c, "status"),
		Type:      queryString[models.AssignmentType](c, "type"),
		Search:    params.Search,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}

	page, err := h.service.List(c.Request.Context(), p, filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /assignments/{id} [put]
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.AssignmentUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, assignment)
}

// @Router /assignments/{id}/status [patch]
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.AssignmentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.service.UpdateStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, assignment)
}

// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
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
	h.message(c, "Assignment deleted")
}

// ===== SUBMISSIONS =====

// Submit records the calling student's work. Late work is accepted and flagged.
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.SubmitAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, submission)
}

// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	submissions, err := h.service.Submissions(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, submissions)
}

// @Router /assignments/{id}/stats [get]
func (h *AssignmentHandler) Stats(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, stats)
}

// @Router /submissions/{id}/grade [post]
func (h *AssignmentHandler) GradeSubmission(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.GradeSubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.service.Grade(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, submission)
}

// BulkGrade applies one score to many students; the result is a per-student tally.
// @Router /assignments/{id}/bulk-grade [post]
func (h *AssignmentHandler) BulkGrade(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.BulkGradeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Bulk grading", "assignment_id", id, "students", len(req.StudentIDs))
	result, err := h.service.BulkGrade(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// @Router /students/{id}/assignments [get]
func (h *AssignmentHandler) StudentAssignments(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.studentAssignments(c, p, id)
}

// @Router /me/assignments [get]
func (h *AssignmentHandler) MyAssignments(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if !p.IsStudent() {
		h.fail(c, http.StatusForbidden, "only students have assignments", nil)
		return
	}
	studentID, ok := h.selfStudentID(c, h.access, p)
	if !ok {
		return
	}
	h.studentAssignments(c, p, studentID)
}

func (h *AssignmentHandler) studentAssignments(c *gin.Context, p models.Principal, studentID uint) {
	items, err := h.service.StudentAssignments(c.Request.Context(), p, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, items)
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

// ClassHandler serves classes, subjects and class membership.
type ClassHandler struct {
	BaseHandler
	service services.ClassService
}

func NewClassHandler(service services.ClassService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== CLASSES =====

// @Router /classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.ClassCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, class, "Class created")
}

// ListClasses returns the classes the caller can see.
// @Param grade_level query int false "Grade 1-12"
// @Router /classes [get]
func (h *ClassHandler) ListClasses(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	var gradeLevel *int
	if raw := c.Query("grade_level"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			gradeLevel = &v
		}
	}

	page, err := h.service.ListClasses(c.Request.Context(), p, gradeLevel, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /classes/{id} [get]
func (h *ClassHandler) GetClass(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	class, err := h.service.GetClass(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, class)
}

// @Router /classes/{id} [put]
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.ClassUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	class, err := h.service.UpdateClass(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, class)
}

// @Router /classes/{id} [delete]
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.DeleteClass(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Class deleted")
}

// ===== MEMBERSHIP =====

// AddSubject links a subject to a class and enrols the class's current students.
// @Router /classes/{id}/subjects/{subjectId} [post]
func (h *ClassHandler) AddSubject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	subjectID := h.parseIDParam(c, "subjectId")
	if subjectID == 0 {
		return
	}

	link, err := h.service.AddSubjectToClass(c.Request.Context(), p, id, subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, link, "Subject added to class")
}

// @Router /classes/{id}/subjects/{subjectId} [delete]
func (h *ClassHandler) RemoveSubject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	subjectID := h.parseIDParam(c, "subjectId")
	if subjectID == 0 {
		return
	}

	if err := h.service.RemoveSubjectFromClass(c.Request.Context(), p, id, subjectID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Subject removed from class")
}

// @Router /classes/{id}/teachers [post]
func (h *ClassHandler) AssignTeacher(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.AssignTeacherRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.service.AssignTeacher(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, assignment, "Teacher assigned")
}

// @Router /classes/{id}/teachers/{teacherId}/subjects/{subjectId} [delete]
func (h *ClassHandler) UnassignTeacher(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID := h.parseIDParam(c, "teacherId")
	if teacherID == 0 {
		return
	}
	subjectID := h.parseIDParam(c, "subjectId")
	if subjectID == 0 {
		return
	}

	if err := h.service.UnassignTeacher(c.Request.Context(), p, id, teacherID, subjectID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Teacher unassigned")
}

// @Router /classes/{id}/students [post]
func (h *ClassHandler) BulkAssignStudents(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.BulkAssignStudentsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.BulkAssignStudents(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// ===== SUBJECTS =====

// @Router /subjects [post]
func (h *ClassHandler) CreateSubject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.SubjectCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subject, err := h.service.CreateSubject(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, subject, "Subject created")
}

// @Router /subjects [get]
func (h *ClassHandler) ListSubjects(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	page, err := h.service.ListSubjects(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /subjects/{id} [get]
func (h *ClassHandler) GetSubject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	subject, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, subject)
}

// @Router /subjects/{id} [put]
func (h *ClassHandler) UpdateSubject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.SubjectUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subject, err := h.service.UpdateSubject(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, subject)
}

// @Router /subjects/{id} [delete]
func (h *ClassHandler) DeleteSubject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.DeleteSubject(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Subject deleted")
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

const dateLayout = "2006-01-02"

// GradeHandler serves grade entry and attendance, the two per-class record books.
type GradeHandler struct {
	BaseHandler
	grades     services.GradeService
	attendance services.AttendanceService
}

func NewGradeHandler(grades services.GradeService, attendance services.AttendanceService, logger utils.Logger) *GradeHandler {
	return &GradeHandler{
		BaseHandler: NewBaseHandler(logger),
		grades:      grades,
		attendance:  attendance,
	}
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func (h *GradeHandler) queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid "+name+", expected YYYY-MM-DD", raw)
		return nil, false
	}
	return &t, true
}

// ===== GRADES =====

// @Router /grades [post]
func (h *GradeHandler) CreateGrade(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.GradeCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	grade, err := h.grades.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, grade, "Grade recorded")
}

// @Router /grades/bulk [post]
func (h *GradeHandler) BulkCreateGrades(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.BulkGradeCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.grades.BulkCreate(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// ListGrades needs class_id unless the caller is an admin or a student.
// @Router /grades [get]
func (h *GradeHandler) ListGrades(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	var filters repositories.GradeFilters
	if filters.StudentID, ok = h.queryUint(c, "student_id"); !ok {
		return
	}
	if filters.ClassID, ok = h.queryUint(c, "class_id"); !ok {
		return
	}
	if filters.SubjectID, ok = h.queryUint(c, "subject_id"); !ok {
		return
	}
	filters.GradeType = queryString[models.GradeType](c, "grade_type")
	filters.Semester = queryString[string](c, "semester")
	filters.AcademicYear = queryString[string](c, "academic_year")

	page, err := h.grades.List(c.Request.Context(), p, filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /grades/{id} [put]
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.GradeUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	grade, err := h.grades.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, grade)
}

// @Router /grades/{id} [delete]
func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.grades.Delete(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Grade deleted")
}

// @Router /students/{id}/grades/recap [get]
func (h *GradeHandler) StudentRecap(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	recap, err := h.grades.StudentRecap(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, recap)
}

// ===== ATTENDANCE =====

// @Router /attendance [post]
func (h *GradeHandler) RecordAttendance(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.AttendanceRecordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.attendance.Record(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, record)
}

// @Router /attendance/bulk [post]
func (h *GradeHandler) BulkRecordAttendance(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.BulkAttendanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.attendance.BulkRecord(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Router /attendance [get]
func (h *GradeHandler) ListAttendance(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	var filters repositories.AttendanceFilters
	if filters.StudentID, ok = h.queryUint(c, "student_id"); !ok {
		return
	}
	if filters.ClassID, ok = h.queryUint(c, "class_id"); !ok {
		return
	}
	if filters.SubjectID, ok = h.queryUint(c, "subject_id"); !ok {
		return
	}
	if filters.DateFrom, ok = h.queryDate(c, "from"); !ok {
		return
	}
	if filters.DateTo, ok = h.queryDate(c, "to"); !ok {
		return
	}
	filters.Status = queryString[models.AttendanceStatus](c, "status")

	page, err := h.attendance.List(c.Request.Context(), p, filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /attendance/{id} [delete]
func (h *GradeHandler) DeleteAttendance(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.attendance.Delete(c.Request.Context(), p, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.message(c, "Attendance deleted")
}

// @Router /students/{id}/attendance/summary [get]
func (h *GradeHandler) AttendanceSummary(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var query services.AttendanceSummaryQuery
	if query.From, ok = h.queryDate(c, "from"); !ok {
		return
	}
	if query.To, ok = h.queryDate(c, "to"); !ok {
		return
	}

	summary, err := h.attendance.Summary(c.Request.Context(), p, id, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, summary)
}

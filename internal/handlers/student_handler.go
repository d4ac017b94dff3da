package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// GetMe returns the calling student's XP, level and badges
// @Summary Get own progress
// @Tags students
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.StudentProgress}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Not a student"
// @Router /students/me [get]
func (h *StudentHandler) GetMe(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	progress, err := h.service.Me(c.Request.Context(), p)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, progress)
}

// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.StudentCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, student, "Student created")
}

// List returns students in the caller's visible classes.
// @Param class_id query int false "Class"
// @Param status query string false "ACTIVE, INACTIVE or GRADUATED"
// @Param search query string false "Name or NISN"
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
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

	filters := repositories.StudentFilters{
		ClassID: classID,
		Status:  queryString[models.StudentStatus](c, "status"),
		Search:  params.Search,
	}

	page, err := h.service.List(c.Request.Context(), p, filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	student, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, student)
}

// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.StudentUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, student)
}

// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
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
	h.message(c, "Student deleted")
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	service services.QuestionService
}

func NewQuestionHandler(service services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req models.QuestionCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.created(c, question, "Question created")
}

// List returns the caller's own bank; admins see every question.
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	subjectID, ok := h.queryUint(c, "subject_id")
	if !ok {
		return
	}

	filters := repositories.QuestionFilters{
		SubjectID:  subjectID,
		Type:       queryString[models.QuestionType](c, "type"),
		Difficulty: queryString[models.DifficultyLevel](c, "difficulty"),
		Search:     params.Search,
	}
	if raw := c.Query("grade_level"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filters.GradeLevel = &v
		}
	}

	page, err := h.service.List(c.Request.Context(), p, filters, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, page)
}

// @Router /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, question)
}

// @Router /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.QuestionUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, question)
}

// @Router /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
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
	h.message(c, "Question deleted")
}

// RandomSelection draws up to count questions matching the filters.
// @Param filters body repositories.RandomQuestionFilters true "Selection criteria"
// @Router /questions/random [post]
func (h *QuestionHandler) RandomSelection(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filters repositories.RandomQuestionFilters
	if !h.bindJSON(c, &filters) {
		return
	}

	questions, err := h.service.RandomSelection(c.Request.Context(), p, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, questions)
}

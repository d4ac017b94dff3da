package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportBytes  = 5 << 20
)

type ImportExportHandler struct {
	BaseHandler
	service services.ImportExportService
}

func NewImportExportHandler(service services.ImportExportService, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *ImportExportHandler) sendWorkbook(c *gin.Context, filename string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportClassGrades downloads the per-subject grade recap of a class.
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /classes/{id}/grades/export [get]
func (h *ImportExportHandler) ExportClassGrades(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	// Rendered into memory first so a failure still gets a JSON error.
	buf := &bytes.Buffer{}
	if err := h.service.ExportClassGradeRecap(c.Request.Context(), p, id, buf); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendWorkbook(c, fmt.Sprintf("rekap-nilai-kelas-%d.xlsx", id), buf)
}

// @Param limit query int false "Number of entries (default: 10, max: 100)"
// @Param class_id query int false "Restrict to a class"
// @Router /leaderboard/export [get]
func (h *ImportExportHandler) ExportLeaderboard(c *gin.Context) {
	limit := h.queryInt(c, "limit", defaultLeaderboardLimit)
	if limit < 1 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	classID, ok := h.queryUint(c, "class_id")
	if !ok {
		return
	}

	buf := &bytes.Buffer{}
	if err := h.service.ExportLeaderboard(c.Request.Context(), limit, classID, buf); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendWorkbook(c, "leaderboard.xlsx", buf)
}

// ImportStudents reads an uploaded workbook (form field "file") into a class.
// @Accept multipart/form-data
// @Router /classes/{id}/students/import [post]
func (h *ImportExportHandler) ImportStudents(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	if header.Size > maxImportBytes {
		h.fail(c, http.StatusBadRequest, "file is too large", gin.H{"max_bytes": maxImportBytes})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "cannot read upload", err.Error())
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing students", "class_id", id, "file", header.Filename)
	result, err := h.service.ImportStudents(c.Request.Context(), p, id, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, result)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

const principalKey = "principal"

// BaseHandler carries the logger and the response helpers every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs at debug level with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// ===== RESPONSES =====

func (h *BaseHandler) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: data})
}

func (h *BaseHandler) created(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, models.APIResponse{Success: true, Data: data, Message: message})
}

func (h *BaseHandler) message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: message})
}

func (h *BaseHandler) fail(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, models.APIResponse{Success: false, Error: message, Details: details})
}

// handleServiceError is the only place service errors become status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErrs services.ValidationErrors
		validationErr  *services.ValidationError
		permissionErr  *services.PermissionError
		notFoundErr    *services.NotFoundError
		conflictErr    *services.ConflictError
	)

	switch {
	case errors.As(err, &validationErrs):
		h.fail(c, http.StatusBadRequest, "Validation failed", validationErrs)
	case errors.As(err, &validationErr):
		h.fail(c, http.StatusBadRequest, validationErr.Error(), services.ValidationErrors{*validationErr})
	case errors.As(err, &permissionErr):
		h.fail(c, http.StatusForbidden, "Access denied", gin.H{
			"resource": permissionErr.Resource,
			"action":   permissionErr.Action,
			"reason":   permissionErr.Reason,
		})
	case errors.As(err, &notFoundErr):
		h.fail(c, http.StatusNotFound, notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		h.fail(c, http.StatusConflict, conflictErr.Reason, gin.H{"resource": conflictErr.Resource})
	case errors.Is(err, services.ErrValidationFailed):
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		h.fail(c, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, services.ErrNotFound):
		h.fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		h.fail(c, http.StatusConflict, err.Error(), nil)
	default:
		h.LogError(c, err, "Unexpected service error")
		h.fail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// ===== REQUEST HELPERS =====

// principal returns the caller resolved by the auth middleware, writing a 401 when absent.
func (h *BaseHandler) principal(c *gin.Context) (models.Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p, true
		}
	}
	h.fail(c, http.StatusUnauthorized, "User not authenticated", nil)
	return models.Principal{}, false
}

// parseIDParam parses a positive path id, writing a 400 on failure. Zero means failure.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		h.fail(c, http.StatusBadRequest, "Invalid "+name, c.Param(name))
		return 0
	}
	return uint(id)
}

// selfStudentID resolves the student row of the calling SISWA, writing the error response on failure.
func (h *BaseHandler) selfStudentID(c *gin.Context, access services.AccessPolicy, p models.Principal) (uint, bool) {
	student, err := access.StudentForPrincipal(c.Request.Context(), p)
	if err != nil {
		h.handleServiceError(c, err)
		return 0, false
	}
	return student.ID, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) listParams(c *gin.Context) (models.ListParams, bool) {
	var params models.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid paging parameters", err.Error())
		return params, false
	}
	return params, true
}

// queryUint reads an optional positive integer query parameter.
func (h *BaseHandler) queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		h.fail(c, http.StatusBadRequest, "Invalid "+name, raw)
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func (h *BaseHandler) queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func queryString[T ~string](c *gin.Context, name string) *T {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v := T(raw)
	return &v
}

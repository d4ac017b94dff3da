package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

// UserHandler is the admin-facing account directory, used to find teachers
// for class assignment. Accounts themselves are provisioned on first login.
type UserHandler struct {
	BaseHandler
	userRepo repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userRepo:    userRepo,
	}
}

// ListUsers lists local accounts
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param search query string false "Name or email fragment"
// @Param role query string false "ADMIN, GURU or SISWA"
// @Success 200 {object} models.APIResponse{data=models.PaginatedResponse}
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	params.Normalize()
	h.LogRequest(c, "Listing users", "search", params.Search)

	filters := repositories.UserFilters{
		Role:   queryString[models.UserRole](c, "role"),
		Search: params.Search,
		Limit:  params.Size,
		Offset: params.Offset(),
	}
	users, total, err := h.userRepo.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, services.NewInternalError("list users", err))
		return
	}
	h.ok(c, models.NewPaginatedResponse(users, total, params))
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 404 {object} models.APIResponse "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			h.handleServiceError(c, services.NewNotFoundError("user", id))
			return
		}
		h.handleServiceError(c, services.NewInternalError("get user", err))
		return
	}
	h.ok(c, user)
}

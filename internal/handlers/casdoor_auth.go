package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories/casdoor"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

// TokenVerifier checks a bearer token; *casdoorsdk.Client satisfies it.
type TokenVerifier interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// PrincipalResolver maps verified claims to a local user.
type PrincipalResolver interface {
	Resolve(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error)
}

// CasdoorAuthMiddleware provides authentication using Casdoor SDK
type CasdoorAuthMiddleware struct {
	verifier TokenVerifier
	resolver PrincipalResolver
	logger   utils.Logger
}

func NewCasdoorAuthMiddleware(verifier TokenVerifier, resolver PrincipalResolver, logger utils.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{verifier: verifier, resolver: resolver, logger: logger}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{Success: false, Error: message})
}

// AuthMiddleware verifies the bearer token and stores the caller as a Principal.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.verifier.ParseJwtToken(tokenParts[1])
		if err != nil {
			utils.GetLogger(c, cam.logger).Debug("Token rejected", "error", err)
			unauthorized(c, "invalid token")
			return
		}

		user, err := cam.resolver.Resolve(c.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, casdoor.ErrInactiveUser) {
				c.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{Success: false, Error: "account is inactive"})
				return
			}
			utils.GetLogger(c, cam.logger).Warn("Failed to resolve principal", "error", err)
			unauthorized(c, "failed to resolve user")
			return
		}

		c.Set(principalKey, models.Principal{UserID: user.ID, Role: user.Role})
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("user_role", user.Role)

		c.Next()
	}
}

// RequireRoleMiddleware admits the listed roles. ADMIN is always admitted.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{Success: false, Error: err.Error()})
			return
		}

		if role != models.RoleAdmin && !slices.Contains(requiredRoles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{
				Success: false,
				Error:   fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			return
		}

		c.Next()
	}
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}
	return userModel, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}
	return role, nil
}

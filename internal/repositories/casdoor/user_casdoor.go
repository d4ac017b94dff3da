package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrInactiveUser   = errors.New("user is inactive")
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// NewClient builds the SDK client used to verify bearer tokens.
func NewClient(config CasdoorConfig) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
}

// UserResolver maps verified Casdoor claims onto a local user row. Matching
// goes by external id, then by email; an unknown identity is provisioned.
type UserResolver struct {
	users repositories.UserRepository
	redis *redis.Client

	// Cache settings
	cachePrefix string
	cacheTTL    time.Duration
}

func NewUserResolver(users repositories.UserRepository, redisClient *redis.Client) *UserResolver {
	return &UserResolver{
		users:       users,
		redis:       redisClient,
		cachePrefix: "pelangi:principal:",
		cacheTTL:    5 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (u *UserResolver) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", u.cachePrefix, key)
}

func (u *UserResolver) getUserFromCache(ctx context.Context, key string) (*models.User, error) {
	if u.redis == nil {
		return nil, nil
	}

	data, err := u.redis.Get(ctx, u.getCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return &user, nil
}

func (u *UserResolver) setUserCache(ctx context.Context, key string, user *models.User) error {
	if u.redis == nil {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user for cache: %w", err)
	}
	return u.redis.Set(ctx, u.getCacheKey(key), data, u.cacheTTL).Err()
}

// Forget drops the cached mapping for an external id, used after a user is edited.
func (u *UserResolver) Forget(ctx context.Context, externalID string) error {
	if u.redis == nil {
		return nil
	}
	return u.redis.Del(ctx, u.getCacheKey(externalID)).Err()
}

// ===== RESOLUTION =====

// Resolve returns the local user for claims. Inactive users are refused.
func (u *UserResolver) Resolve(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	if claims == nil || claims.Id == "" {
		return nil, ErrMissingSubject
	}
	externalID := claims.Id

	user, err := u.getUserFromCache(ctx, externalID)
	if err != nil || user == nil {
		user, err = u.lookup(ctx, claims)
		if err != nil {
			return nil, err
		}
		_ = u.setUserCache(ctx, externalID, user)
	}

	if user.Status == models.UserInactive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (u *UserResolver) lookup(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	externalID := claims.Id

	user, err := u.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email != "" {
		user, err = u.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			// Pre-registered by an admin: link the identity on first sign-in.
			user.ExternalID = &externalID
			if err := u.users.Update(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		case !repositories.IsNotFoundError(err):
			return nil, err
		}
	}

	user = u.convertClaimsToModel(claims, email)
	if err := u.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}

// ===== CONVERSION METHODS =====

func (u *UserResolver) convertClaimsToModel(claims *casdoorsdk.Claims, email string) *models.User {
	externalID := claims.Id
	name := claims.DisplayName
	if name == "" {
		name = claims.Name
	}
	if email == "" {
		email = externalID + "@users.invalid"
	}

	user := &models.User{
		FullName:   name,
		Email:      email,
		Role:       u.convertCasdoorRolesToModel(&claims.User),
		Status:     models.UserActive,
		ExternalID: &externalID,
	}
	if claims.Avatar != "" {
		avatar := claims.Avatar
		user.AvatarURL = &avatar
	}
	return user
}

func (u *UserResolver) convertCasdoorRolesToModel(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		if casdoorRole == nil {
			continue
		}
		if mapped, ok := mapSingleCasdoorRole(casdoorRole.Name); ok && !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}
	if mapped, ok := mapSingleCasdoorRole(casdoorUser.Type); ok && !slices.Contains(roles, mapped) {
		roles = append(roles, mapped)
	}

	// Highest privilege wins.
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleTeacher} {
		if slices.Contains(roles, role) {
			return role
		}
	}
	return models.RoleStudent
}

func mapSingleCasdoorRole(name string) (models.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator":
		return models.RoleAdmin, true
	case "guru", "teacher":
		return models.RoleTeacher, true
	case "siswa", "student":
		return models.RoleStudent, true
	default:
		return "", false
	}
}

package casdoor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type memoryUsers struct {
	users   []*models.User
	lookups int
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryUsers) GetByExternalID(_ context.Context, externalID string) (*models.User, error) {
	m.lookups++
	for _, u := range m.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryUsers) Update(_ context.Context, user *models.User) error { return nil }

func (m *memoryUsers) List(_ context.Context, _ repositories.UserFilters) ([]*models.User, int64, error) {
	return m.users, int64(len(m.users)), nil
}

func claimsFor(id, email, name string, roles ...string) *casdoorsdk.Claims {
	claims := &casdoorsdk.Claims{}
	claims.Id = id
	claims.Email = email
	claims.DisplayName = name
	for _, r := range roles {
		claims.Roles = append(claims.Roles, &casdoorsdk.Role{Name: r})
	}
	return claims
}

func TestUserResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	users := &memoryUsers{}
	resolver := NewUserResolver(users, nil)

	t.Run("provisions unknown identity", func(t *testing.T) {
		user, err := resolver.Resolve(ctx, claimsFor("cd-1", "Guru@Sekolah.id", "Bu Sari", "guru"))
		require.NoError(t, err)
		assert.Equal(t, models.RoleTeacher, user.Role)
		assert.Equal(t, "guru@sekolah.id", user.Email)
		assert.Len(t, users.users, 1)

		again, err := resolver.Resolve(ctx, claimsFor("cd-1", "guru@sekolah.id", "Bu Sari"))
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Len(t, users.users, 1)
	})

	t.Run("links pre-registered email", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, &models.User{FullName: "Admin", Email: "admin@sekolah.id", Role: models.RoleAdmin, Status: models.UserActive}))
		user, err := resolver.Resolve(ctx, claimsFor("cd-2", "admin@sekolah.id", "Admin"))
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		require.NotNil(t, user.ExternalID)
		assert.Equal(t, "cd-2", *user.ExternalID)
	})

	t.Run("inactive user refused", func(t *testing.T) {
		ext := "cd-3"
		require.NoError(t, users.Create(ctx, &models.User{FullName: "Lama", Email: "lama@sekolah.id", Role: models.RoleTeacher, Status: models.UserInactive, ExternalID: &ext}))
		_, err := resolver.Resolve(ctx, claimsFor("cd-3", "lama@sekolah.id", "Lama"))
		assert.ErrorIs(t, err, ErrInactiveUser)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, claimsFor("", "x@sekolah.id", "X"))
		assert.ErrorIs(t, err, ErrMissingSubject)
	})
}

func TestUserResolver_CachesMapping(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := &memoryUsers{}
	resolver := NewUserResolver(users, client)
	claims := claimsFor("cd-9", "siswa@sekolah.id", "Andi", "siswa")

	first, err := resolver.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, first.Role)
	assert.True(t, mr.Exists("pelangi:principal:cd-9"))

	_, err = resolver.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, 1, users.lookups)

	require.NoError(t, resolver.Forget(ctx, "cd-9"))
	_, err = resolver.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, 2, users.lookups)
}

func TestConvertCasdoorRoles(t *testing.T) {
	resolver := NewUserResolver(&memoryUsers{}, nil)
	tests := []struct {
		name string
		user casdoorsdk.User
		want models.UserRole
	}{
		{name: "no roles", user: casdoorsdk.User{}, want: models.RoleStudent},
		{name: "admin flag", user: casdoorsdk.User{IsAdmin: true}, want: models.RoleAdmin},
		{name: "teacher type", user: casdoorsdk.User{Type: "teacher"}, want: models.RoleTeacher},
		{name: "highest role wins", user: casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "siswa"}, {Name: "GURU"}}}, want: models.RoleTeacher},
		{name: "unknown role", user: casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "proctor"}}}, want: models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			assert.Equal(t, tt.want, resolver.convertCasdoorRolesToModel(&u))
		})
	}
}

package repositories

import (
	"context"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// UserRepository interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
}

// StudentRepository interface for student records
type StudentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByNISN(ctx context.Context, nisn string) (*models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters StudentFilters) ([]*models.Student, int64, error)
	ListByClass(ctx context.Context, classID uint) ([]*models.Student, error)
	// ListActiveByGradeLevel returns active students whose class has the given grade; 0 means every grade.
	ListActiveByGradeLevel(ctx context.Context, gradeLevel int) ([]*models.Student, error)
	CountByClass(ctx context.Context, classID uint) (int64, error)
}

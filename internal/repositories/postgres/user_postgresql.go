package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type userPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &userPostgreSQL{db: db}
}

func (r *userPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (r *userPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *userPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by email")
	}
	return &user, nil
}

func (r *userPostgreSQL) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by external id")
	}
	return &user, nil
}

func (r *userPostgreSQL) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return handleDBError(err, "update user")
	}
	return nil
}

func (r *userPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = applyPagination(query.Order("full_name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}

	return users, total, nil
}

// ===== STUDENTS =====

type studentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &studentPostgreSQL{db: db}
}

func (r *studentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return handleDBError(err, "create student")
	}
	return nil
}

func (r *studentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("XP").
		First(&student, id).Error; err != nil {
		return nil, handleDBError(err, "get student by id")
	}
	return &student, nil
}

func (r *studentPostgreSQL) GetByNISN(ctx context.Context, nisn string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", nisn).First(&student).Error; err != nil {
		return nil, handleDBError(err, "get student by nisn")
	}
	return &student, nil
}

func (r *studentPostgreSQL) GetByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Where("user_id = ?", userID).
		First(&student).Error; err != nil {
		return nil, handleDBError(err, "get student by user id")
	}
	return &student, nil
}

func (r *studentPostgreSQL) Update(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Omit("Class", "XP").Save(student).Error; err != nil {
		return handleDBError(err, "update student")
	}
	return nil
}

func (r *studentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Student{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete student")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete student")
	}
	return nil
}

func (r *studentPostgreSQL) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	var students []*models.Student
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Student{})
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.ClassIDs != nil {
		query = query.Where("class_id IN ?", filters.ClassIDs)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("full_name ILIKE ? OR student_id ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count students")
	}

	query = applyPagination(query.Preload("Class").Preload("XP").Order("full_name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, handleDBError(err, "list students")
	}

	return students, total, nil
}

func (r *studentPostgreSQL) ListByClass(ctx context.Context, classID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("full_name ASC").
		Find(&students).Error; err != nil {
		return nil, handleDBError(err, "list students by class")
	}
	return students, nil
}

func (r *studentPostgreSQL) ListActiveByGradeLevel(ctx context.Context, gradeLevel int) ([]*models.Student, error) {
	var students []*models.Student

	query := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("students.status = ?", models.StudentActive)
	if gradeLevel > 0 {
		query = query.
			Joins("JOIN classes ON classes.id = students.class_id").
			Where("classes.grade_level = ?", gradeLevel)
	}

	if err := query.Order("students.id ASC").Find(&students).Error; err != nil {
		return nil, handleDBError(err, "list students by grade level")
	}
	return students, nil
}

func (r *studentPostgreSQL) CountByClass(ctx context.Context, classID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("class_id = ?", classID).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count students by class")
	}
	return count, nil
}

package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type questionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &questionPostgreSQL{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *questionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Omit("Subject").Create(question).Error; err != nil {
		return handleDBError(err, "create question")
	}
	return nil
}

func (r *questionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Preload("Subject").First(&question, id).Error; err != nil {
		return nil, handleDBError(err, "get question by id")
	}
	return &question, nil
}

func (r *questionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Omit("Subject").Save(question).Error; err != nil {
		return handleDBError(err, "update question")
	}
	return nil
}

func (r *questionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete question")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete question")
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *questionPostgreSQL) applyFilters(query *gorm.DB, subjectID *uint, qType *models.QuestionType, difficulty *models.DifficultyLevel, gradeLevel *int) *gorm.DB {
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}
	if qType != nil {
		query = query.Where("type = ?", *qType)
	}
	if difficulty != nil {
		query = query.Where("difficulty = ?", *difficulty)
	}
	if gradeLevel != nil {
		query = query.Where("grade_level = ?", *gradeLevel)
	}
	return query
}

func (r *questionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.Question{}),
		filters.SubjectID, filters.Type, filters.Difficulty, filters.GradeLevel)
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("text ILIKE ? OR tags::text ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count questions")
	}

	query = applyPagination(query.Preload("Subject").Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, handleDBError(err, "list questions")
	}
	return questions, total, nil
}

func (r *questionPostgreSQL) GetRandomQuestions(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	var questions []*models.Question

	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.Question{}),
		filters.SubjectID, filters.Type, filters.Difficulty, filters.GradeLevel)
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if len(filters.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filters.ExcludeIDs)
	}

	if err := query.Order("RANDOM()").Limit(filters.Count).Find(&questions).Error; err != nil {
		return nil, handleDBError(err, "get random questions")
	}
	return questions, nil
}

package repositories

import (
	"context"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// QuestionRepository interface for question bank operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	GetRandomQuestions(ctx context.Context, filters RandomQuestionFilters) ([]*models.Question, error)
}

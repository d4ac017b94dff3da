package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type assignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &assignmentPostgreSQL{db: db}
}

func (r *assignmentPostgreSQL) Create(ctx context.Context, assignment *models.Assignment) error {
	if err := r.db.WithContext(ctx).Omit("Class", "Subject", "Submissions").Create(assignment).Error; err != nil {
		return handleDBError(err, "create assignment")
	}
	return nil
}

func (r *assignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Subject").
		First(&assignment, id).Error; err != nil {
		return nil, handleDBError(err, "get assignment by id")
	}
	return &assignment, nil
}

func (r *assignmentPostgreSQL) Update(ctx context.Context, assignment *models.Assignment) error {
	if err := r.db.WithContext(ctx).Omit("Class", "Subject", "Submissions").Save(assignment).Error; err != nil {
		return handleDBError(err, "update assignment")
	}
	return nil
}

func (r *assignmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("assignment_id = ?", id).Delete(&models.AssignmentSubmission{}).Error; err != nil {
		return handleDBError(err, "delete assignment submissions")
	}

	result := db.Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete assignment")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete assignment")
	}
	return nil
}

func (r *assignmentPostgreSQL) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	var assignments []*models.Assignment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", likePattern(filters.Search))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count assignments")
	}

	sortColumns := map[string]string{
		"created_at": "created_at",
		"deadline":   "deadline",
		"title":      "title",
	}
	query = applyPaginationAndSorting(query.Preload("Class").Preload("Subject"),
		filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, sortColumns, "created_at")

	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, handleDBError(err, "list assignments")
	}
	return assignments, total, nil
}

// ===== SUBMISSIONS =====

type submissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &submissionPostgreSQL{db: db}
}

func (r *submissionPostgreSQL) Create(ctx context.Context, submission *models.AssignmentSubmission) error {
	if err := r.db.WithContext(ctx).Omit("Assignment", "Student").Create(submission).Error; err != nil {
		return handleDBError(err, "create submission")
	}
	return nil
}

func (r *submissionPostgreSQL) CreateBatch(ctx context.Context, submissions []*models.AssignmentSubmission) error {
	if len(submissions) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit("Assignment", "Student").CreateInBatches(submissions, 100).Error; err != nil {
		return handleDBError(err, "create submissions")
	}
	return nil
}

func (r *submissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		First(&submission, id).Error; err != nil {
		return nil, handleDBError(err, "get submission by id")
	}
	return &submission, nil
}

func (r *submissionPostgreSQL) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error; err != nil {
		return nil, handleDBError(err, "get submission")
	}
	return &submission, nil
}

func (r *submissionPostgreSQL) Update(ctx context.Context, submission *models.AssignmentSubmission) error {
	if err := r.db.WithContext(ctx).Omit("Assignment", "Student").Save(submission).Error; err != nil {
		return handleDBError(err, "update submission")
	}
	return nil
}

func (r *submissionPostgreSQL) UpdateFrom(ctx context.Context, submission *models.AssignmentSubmission, from repositories.SubmissionGuard) error {
	result := r.db.WithContext(ctx).
		Model(submission).
		Where("status = ? AND xp_awarded = ?", from.Status, from.XPAwarded).
		Select("*").
		Omit("created_at", "Assignment", "Student").
		Updates(submission)
	if result.Error != nil {
		return handleDBError(result.Error, "update submission")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update submission %d: %w", submission.ID, repositories.ErrStale)
	}
	return nil
}

func (r *submissionPostgreSQL) ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentSubmission, error) {
	var submissions []*models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("student_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, handleDBError(err, "list submissions by assignment")
	}
	return submissions, nil
}

func (r *submissionPostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.AssignmentSubmission, error) {
	var submissions []*models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, handleDBError(err, "list submissions by student")
	}
	return submissions, nil
}

func (r *submissionPostgreSQL) CountByStatus(ctx context.Context, assignmentID uint) (repositories.SubmissionStatusCounts, error) {
	var rows []struct {
		Status models.SubmissionStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
		Select("status, COUNT(*) AS count").
		Where("assignment_id = ?", assignmentID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "count submissions by status")
	}

	counts := repositories.SubmissionStatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *submissionPostgreSQL) AverageScore(ctx context.Context, assignmentID uint) (float64, error) {
	var avg *float64
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
		Select("AVG(score)").
		Where("assignment_id = ? AND status = ?", assignmentID, models.SubmissionGraded).
		Scan(&avg).Error; err != nil {
		return 0, handleDBError(err, "average submission score")
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

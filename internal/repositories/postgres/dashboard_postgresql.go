package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) count(ctx context.Context, model interface{}, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(model)
	if scope != nil {
		query = scope(query)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *dashboardRepository) GetStats(ctx context.Context, scope repositories.DashboardScope) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	var err error

	byClass := func(column string) func(*gorm.DB) *gorm.DB {
		if scope.ClassIDs == nil {
			return nil
		}
		return func(q *gorm.DB) *gorm.DB {
			return q.Where(column+" IN ?", scope.ClassIDs)
		}
	}

	if stats.TotalStudents, err = r.count(ctx, &models.Student{}, byClass("class_id")); err != nil {
		return nil, handleDBError(err, "count students")
	}
	if stats.TotalClasses, err = r.count(ctx, &models.Class{}, byClass("id")); err != nil {
		return nil, handleDBError(err, "count classes")
	}

	subjectScope := func(q *gorm.DB) *gorm.DB { return q }
	if scope.TeacherID != nil {
		teacherID := *scope.TeacherID
		subjectScope = func(q *gorm.DB) *gorm.DB {
			return q.Where("id IN (?)", r.db.Model(&models.ClassTeacherSubject{}).
				Select("subject_id").
				Where("teacher_id = ? AND is_active = ?", teacherID, true))
		}
	}
	if stats.TotalSubjects, err = r.count(ctx, &models.Subject{}, subjectScope); err != nil {
		return nil, handleDBError(err, "count subjects")
	}

	assignmentScope := func(q *gorm.DB) *gorm.DB {
		if scope.TeacherID != nil {
			q = q.Where("teacher_id = ?", *scope.TeacherID)
		}
		return q
	}
	if stats.TotalAssignments, err = r.count(ctx, &models.Assignment{}, assignmentScope); err != nil {
		return nil, handleDBError(err, "count assignments")
	}

	if stats.ActiveChallenges, err = r.count(ctx, &models.Challenge{}, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ? AND end_date >= ?", true, scope.Now)
	}); err != nil {
		return nil, handleDBError(err, "count active challenges")
	}

	if stats.PendingGrading, err = r.count(ctx, &models.AssignmentSubmission{}, func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN assignments a ON a.id = assignment_submissions.assignment_id").
			Where("assignment_submissions.status IN ?", []models.SubmissionStatus{models.SubmissionSubmitted, models.SubmissionLateSubmitted})
		if scope.TeacherID != nil {
			q = q.Where("a.teacher_id = ?", *scope.TeacherID)
		}
		return q
	}); err != nil {
		return nil, handleDBError(err, "count pending grading")
	}

	return stats, nil
}

// ===== ACTIVITIES =====

type activityPostgreSQL struct {
	db *gorm.DB
}

func NewActivityPostgreSQL(db *gorm.DB) repositories.ActivityRepository {
	return &activityPostgreSQL{db: db}
}

func (r *activityPostgreSQL) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return handleDBError(err, "create activity")
	}
	return nil
}

func (r *activityPostgreSQL) ListRecent(ctx context.Context, filters repositories.ActivityFilters) ([]models.Activity, error) {
	var activities []models.Activity

	query := r.db.WithContext(ctx).Model(&models.Activity{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 10
	}

	if err := query.Order("created_at DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, handleDBError(err, "list recent activities")
	}
	return activities, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	// Delete removes the assignment and its submissions
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters AssignmentFilters) ([]*models.Assignment, int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.AssignmentSubmission) error
	CreateBatch(ctx context.Context, submissions []*models.AssignmentSubmission) error
	GetByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.AssignmentSubmission, error)
	Update(ctx context.Context, submission *models.AssignmentSubmission) error
	// UpdateFrom writes the row only while it still matches from, else ErrStale
	UpdateFrom(ctx context.Context, submission *models.AssignmentSubmission, from SubmissionGuard) error

	ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentSubmission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.AssignmentSubmission, error)

	// Statistics
	CountByStatus(ctx context.Context, assignmentID uint) (SubmissionStatusCounts, error)
	AverageScore(ctx context.Context, assignmentID uint) (float64, error)
}

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	GetByID(ctx context.Context, id uint) (*models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters GradeFilters) ([]*models.Grade, int64, error)
	// AveragesBySubject averages score percentages per subject for one student
	AveragesBySubject(ctx context.Context, studentID uint) ([]models.SubjectGradeRecap, error)
}

type AttendanceRepository interface {
	// Upsert inserts or replaces the record for (student, class, subject, date)
	Upsert(ctx context.Context, attendance *models.Attendance) error
	GetByID(ctx context.Context, id uint) (*models.Attendance, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters AttendanceFilters) ([]*models.Attendance, int64, error)
	CountByStatus(ctx context.Context, studentID uint, from, to *time.Time) (AttendanceCounts, error)
}

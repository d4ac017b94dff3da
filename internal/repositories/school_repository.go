package repositories

import (
	"context"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// ClassRepository interface for classes. List and GetByID fill StudentCount.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (*models.Class, error)
	GetByName(ctx context.Context, name string) (*models.Class, error)
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ClassFilters) ([]*models.Class, int64, error)
}

type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id uint) (*models.Subject, error)
	GetByCode(ctx context.Context, code string) (*models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters SubjectFilters) ([]*models.Subject, int64, error)
}

type ClassSubjectRepository interface {
	Create(ctx context.Context, cs *models.ClassSubject) error
	Get(ctx context.Context, classID, subjectID uint) (*models.ClassSubject, error)
	Update(ctx context.Context, cs *models.ClassSubject) error
	ListByClass(ctx context.Context, classID uint) ([]*models.ClassSubject, error)
}

// TeacherAssignmentRepository stores ClassTeacherSubject rows, the ground truth of teacher scope.
type TeacherAssignmentRepository interface {
	Create(ctx context.Context, cts *models.ClassTeacherSubject) error
	Get(ctx context.Context, classID, teacherID, subjectID uint) (*models.ClassTeacherSubject, error)
	Update(ctx context.Context, cts *models.ClassTeacherSubject) error
	ListByClass(ctx context.Context, classID uint) ([]*models.ClassTeacherSubject, error)

	// Access checks, active rows only
	HasClassAccess(ctx context.Context, teacherID, classID uint) (bool, error)
	HasClassSubjectAccess(ctx context.Context, teacherID, classID, subjectID uint) (bool, error)
	ListClassIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error)
	ListSubjectIDs(ctx context.Context, teacherID, classID uint) ([]uint, error)
}

type EnrollmentRepository interface {
	CreateBatch(ctx context.Context, enrollments []*models.StudentSubjectEnrollment) error
	ListByClassSubject(ctx context.Context, classID, subjectID uint) ([]*models.StudentSubjectEnrollment, error)
}

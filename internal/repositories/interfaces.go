package repositories

import (
	"errors"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// Storage-level errors. Implementations translate driver errors into these.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale reports a guarded update whose row no longer matched the guard
	ErrStale = errors.New("record changed concurrently")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func IsStaleError(err error) bool {
	return errors.Is(err, ErrStale)
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role   *models.UserRole `json:"role"`
	Search string           `json:"search"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type StudentFilters struct {
	ClassID  *uint                 `json:"class_id"`
	ClassIDs []uint                `json:"class_ids"` // scope; nil means unrestricted
	Status   *models.StudentStatus `json:"status"`
	Search   string                `json:"search"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

type ClassFilters struct {
	IDs        []uint `json:"ids"` // scope; nil means unrestricted
	GradeLevel *int   `json:"grade_level"`
	Search     string `json:"search"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

type SubjectFilters struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type AssignmentFilters struct {
	TeacherID *uint                    `json:"teacher_id"`
	ClassID   *uint                    `json:"class_id"`
	SubjectID *uint                    `json:"subject_id"`
	Status    *models.AssignmentStatus `json:"status"`
	Type      *models.AssignmentType   `json:"type"`
	Search    string                   `json:"search"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "deadline", "title"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type GradeFilters struct {
	StudentID    *uint             `json:"student_id"`
	ClassID      *uint             `json:"class_id"`
	SubjectID    *uint             `json:"subject_id"`
	GradeType    *models.GradeType `json:"grade_type"`
	Semester     *string           `json:"semester"`
	AcademicYear *string           `json:"academic_year"`
	Limit        int               `json:"limit"`
	Offset       int               `json:"offset"`

	// SubjectIDs narrows to these subjects when non-nil; empty matches nothing
	SubjectIDs []uint `json:"-"`
}

type AttendanceFilters struct {
	StudentID *uint                    `json:"student_id"`
	ClassID   *uint                    `json:"class_id"`
	SubjectID *uint                    `json:"subject_id"`
	Status    *models.AttendanceStatus `json:"status"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`

	// SubjectIDs, when non-nil, keeps daily records plus these subjects
	SubjectIDs []uint `json:"-"`
}

type ChallengeFilters struct {
	IsActive   *bool                       `json:"is_active"`
	TargetType *models.ChallengeTargetType `json:"target_type"`
	CreatedBy  *uint                       `json:"created_by"`
	Limit      int                         `json:"limit"`
	Offset     int                         `json:"offset"`
}

type QuestionFilters struct {
	SubjectID  *uint                   `json:"subject_id"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	GradeLevel *int                    `json:"grade_level"`
	CreatedBy  *uint                   `json:"created_by"`
	Search     string                  `json:"search"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

type RandomQuestionFilters struct {
	SubjectID  *uint                   `json:"subject_id"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	GradeLevel *int                    `json:"grade_level"`
	CreatedBy  *uint                   `json:"created_by"`
	ExcludeIDs []uint                  `json:"exclude_ids"`
	Count      int                     `json:"count"`
}

type ActivityFilters struct {
	UserID    *uint `json:"user_id"`
	StudentID *uint `json:"student_id"`
	Limit     int   `json:"limit"`
}

// SubmissionGuard is the state a submission must still hold for a guarded update.
type SubmissionGuard struct {
	Status    models.SubmissionStatus
	XPAwarded int
}

// ===== SHARED STATISTICS STRUCTS =====

type SubmissionStatusCounts map[models.SubmissionStatus]int64

type AttendanceCounts map[models.AttendanceStatus]int64

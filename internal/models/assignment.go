package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssignmentType string

const (
	AssignmentTugasHarian   AssignmentType = "TUGAS_HARIAN"
	AssignmentQuiz          AssignmentType = "QUIZ"
	AssignmentUlanganHarian AssignmentType = "ULANGAN_HARIAN"
	AssignmentPTS           AssignmentType = "PTS"
	AssignmentPAS           AssignmentType = "PAS"
	AssignmentPraktik       AssignmentType = "PRAKTIK"
	AssignmentProyek        AssignmentType = "PROYEK"
)

func (t AssignmentType) IsValid() bool {
	switch t {
	case AssignmentTugasHarian, AssignmentQuiz, AssignmentUlanganHarian,
		AssignmentPTS, AssignmentPAS, AssignmentPraktik, AssignmentProyek:
		return true
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentDraft     AssignmentStatus = "DRAFT"
	AssignmentPublished AssignmentStatus = "PUBLISHED"
	AssignmentClosed    AssignmentStatus = "CLOSED"
)

func (s AssignmentStatus) IsValid() bool {
	return s == AssignmentDraft || s == AssignmentPublished || s == AssignmentClosed
}

const DefaultAssignmentPoints = 100

type Assignment struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	TeacherID    uint             `json:"teacher_id" gorm:"not null;index"`
	ClassID      uint             `json:"class_id" gorm:"not null;index"`
	SubjectID    *uint            `json:"subject_id" gorm:"index"`
	Title        string           `json:"title" gorm:"not null;size:200"`
	Description  string           `json:"description" gorm:"type:text"`
	Instructions *string          `json:"instructions" gorm:"type:text"`
	Points       int              `json:"points" gorm:"not null;default:100"`
	Deadline     time.Time        `json:"deadline" gorm:"not null;index"`
	Type         AssignmentType   `json:"type" gorm:"not null;size:20;default:TUGAS_HARIAN"`
	Status       AssignmentStatus `json:"status" gorm:"not null;size:10;default:DRAFT;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Class       *Class                 `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Subject     *Subject               `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Submissions []AssignmentSubmission `json:"submissions,omitempty" gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}

func (Assignment) TableName() string {
	return "assignments"
}

type SubmissionStatus string

const (
	SubmissionNotSubmitted  SubmissionStatus = "NOT_SUBMITTED"
	SubmissionSubmitted     SubmissionStatus = "SUBMITTED"
	SubmissionLateSubmitted SubmissionStatus = "LATE_SUBMITTED"
	SubmissionGraded        SubmissionStatus = "GRADED"
)

type SubmissionOrigin string

const (
	OriginStudentSubmitted  SubmissionOrigin = "STUDENT_SUBMITTED"
	OriginTeacherBackfilled SubmissionOrigin = "TEACHER_BACKFILLED"
)

// BackfilledSubmissionContent marks a submission row a teacher graded without a student upload.
const BackfilledSubmissionContent = "[Dinilai tanpa pengumpulan]"

type AssignmentSubmission struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	AssignmentID uint             `json:"assignment_id" gorm:"not null;uniqueIndex:idx_assignment_student"`
	StudentID    uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_assignment_student;index"`
	Status       SubmissionStatus `json:"status" gorm:"not null;size:20;default:NOT_SUBMITTED;index"`
	Origin       SubmissionOrigin `json:"origin" gorm:"not null;size:20;default:STUDENT_SUBMITTED"`
	Content      string           `json:"content" gorm:"type:text"`
	Attachments  datatypes.JSON   `json:"attachments" gorm:"type:jsonb"` // []string
	Score        *float64         `json:"score"`
	Feedback     *string          `json:"feedback" gorm:"type:text"`
	XPAwarded    int              `json:"xp_awarded" gorm:"not null;default:0"`
	SubmittedAt  *time.Time       `json:"submitted_at"`
	GradedAt     *time.Time       `json:"graded_at"`
	GradedBy     *uint            `json:"graded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment *Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	Student    *Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

func (s *AssignmentSubmission) IsSubmitted() bool {
	return s.Status == SubmissionSubmitted || s.Status == SubmissionLateSubmitted
}

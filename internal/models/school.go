package models

import (
	"time"

	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "ACTIVE"
	StudentInactive  StudentStatus = "INACTIVE"
	StudentGraduated StudentStatus = "GRADUATED"
)

type Student struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	StudentID string        `json:"student_id" gorm:"uniqueIndex;not null;size:20"` // NISN
	FullName  string        `json:"full_name" gorm:"not null;size:100;index"`
	Gender    *string       `json:"gender" gorm:"size:1"`
	ClassID   *uint         `json:"class_id" gorm:"index"`
	UserID    *uint         `json:"user_id" gorm:"uniqueIndex"`
	Status    StudentStatus `json:"status" gorm:"default:ACTIVE;size:10;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Class *Class     `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	XP    *StudentXp `json:"xp,omitempty" gorm:"foreignKey:StudentID;references:ID"`
}

func (Student) TableName() string {
	return "students"
}

type Class struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"uniqueIndex;not null;size:50"`
	GradeLevel   int     `json:"grade_level" gorm:"not null;index"`
	AcademicYear *string `json:"academic_year" gorm:"size:9"`
	Description  *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Subjects []ClassSubject        `json:"subjects,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
	Teachers []ClassTeacherSubject `json:"teachers,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	StudentCount int64 `json:"student_count" gorm:"-"`
}

func (Class) TableName() string {
	return "classes"
}

type Subject struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:100"`
	Code        string  `json:"code" gorm:"uniqueIndex;not null;size:20"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subject) TableName() string {
	return "subjects"
}

// ClassSubject is one subject taught within one class.
type ClassSubject struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ClassID   uint `json:"class_id" gorm:"not null;uniqueIndex:idx_class_subject"`
	SubjectID uint `json:"subject_id" gorm:"not null;uniqueIndex:idx_class_subject"`
	IsActive  bool `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

func (ClassSubject) TableName() string {
	return "class_subjects"
}

// ClassTeacherSubject authorizes one teacher to teach one subject within one class.
type ClassTeacherSubject struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ClassID   uint `json:"class_id" gorm:"not null;uniqueIndex:idx_class_teacher_subject"`
	TeacherID uint `json:"teacher_id" gorm:"not null;uniqueIndex:idx_class_teacher_subject;index"`
	SubjectID uint `json:"subject_id" gorm:"not null;uniqueIndex:idx_class_teacher_subject"`
	IsActive  bool `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Teacher *User    `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

func (ClassTeacherSubject) TableName() string {
	return "class_teacher_subjects"
}

type StudentSubjectEnrollment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_student_subject_class"`
	SubjectID  uint      `json:"subject_id" gorm:"not null;uniqueIndex:idx_student_subject_class"`
	ClassID    uint      `json:"class_id" gorm:"not null;uniqueIndex:idx_student_subject_class;index"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	EnrolledAt time.Time `json:"enrolled_at" gorm:"not null"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (StudentSubjectEnrollment) TableName() string {
	return "student_subject_enrollments"
}

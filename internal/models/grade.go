package models

import "time"

type GradeType string

const (
	GradeTugasHarian   GradeType = "TUGAS_HARIAN"
	GradeQuiz          GradeType = "QUIZ"
	GradeUlanganHarian GradeType = "ULANGAN_HARIAN"
	GradePTS           GradeType = "PTS"
	GradePAS           GradeType = "PAS"
	GradePraktik       GradeType = "PRAKTIK"
	GradeSikap         GradeType = "SIKAP"
	GradeKeterampilan  GradeType = "KETERAMPILAN"
)

type Grade struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StudentID    uint      `json:"student_id" gorm:"not null;index"`
	SubjectID    uint      `json:"subject_id" gorm:"not null;index"`
	ClassID      uint      `json:"class_id" gorm:"not null;index"`
	GradeType    GradeType `json:"grade_type" gorm:"not null;size:20"`
	Score        float64   `json:"score" gorm:"not null"`
	MaxScore     float64   `json:"max_score" gorm:"not null;default:100"`
	Description  *string   `json:"description" gorm:"type:text"`
	Semester     *string   `json:"semester" gorm:"size:10"`
	AcademicYear *string   `json:"academic_year" gorm:"size:9"`
	CreatedBy    uint      `json:"created_by" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

func (Grade) TableName() string {
	return "grades"
}

// Percentage normalizes the score to a 0..100 scale.
func (g *Grade) Percentage() float64 {
	if g.MaxScore <= 0 {
		return 0
	}
	return g.Score / g.MaxScore * 100
}

type AttendanceStatus string

const (
	AttendancePresent    AttendanceStatus = "PRESENT"
	AttendanceAbsent     AttendanceStatus = "ABSENT"
	AttendanceSick       AttendanceStatus = "SICK"
	AttendancePermission AttendanceStatus = "PERMISSION"
	AttendanceLate       AttendanceStatus = "LATE"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceSick, AttendancePermission, AttendanceLate:
		return true
	}
	return false
}

type Attendance struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	StudentID  uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_unique"`
	ClassID    uint             `json:"class_id" gorm:"not null;uniqueIndex:idx_attendance_unique;index"`
	SubjectID  *uint            `json:"subject_id" gorm:"uniqueIndex:idx_attendance_unique"`
	Date       time.Time        `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_unique"`
	Status     AttendanceStatus `json:"status" gorm:"not null;size:12"`
	Reason     *string          `json:"reason" gorm:"size:255"`
	Notes      *string          `json:"notes" gorm:"type:text"`
	RecordedBy uint             `json:"recorded_by" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (Attendance) TableName() string {
	return "attendances"
}

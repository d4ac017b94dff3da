package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	Essay          QuestionType = "ESSAY"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
)

func (t QuestionType) IsValid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Essay, ShortAnswer:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "EASY"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHard   DifficultyLevel = "HARD"
)

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	SubjectID  *uint           `json:"subject_id" gorm:"index"`
	Type       QuestionType    `json:"type" gorm:"not null;size:20;index"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:MEDIUM;size:10;index"`
	Text       string          `json:"text" gorm:"type:text;not null"`

	// Content stored as JSONB for flexibility
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"` // []string
	CorrectAnswer string         `json:"correct_answer" gorm:"type:text"`
	Tags          datatypes.JSON `json:"tags" gorm:"type:jsonb"` // []string

	// Metadata
	Explanation *string   `json:"explanation" gorm:"type:text"`
	GradeLevel  *int      `json:"grade_level" gorm:"index"`
	CreatedBy   uint      `json:"created_by" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

func (Question) TableName() string {
	return "questions"
}

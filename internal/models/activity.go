package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityAssignmentCreated  ActivityType = "ASSIGNMENT_CREATED"
	ActivitySubmission         ActivityType = "SUBMISSION"
	ActivitySubmissionGraded   ActivityType = "SUBMISSION_GRADED"
	ActivityGradeRecorded      ActivityType = "GRADE_RECORDED"
	ActivityXPGranted          ActivityType = "XP_GRANTED"
	ActivityLevelUp            ActivityType = "LEVEL_UP"
	ActivityBadgeAwarded       ActivityType = "BADGE_AWARDED"
	ActivityChallengeJoined    ActivityType = "CHALLENGE_JOINED"
	ActivityChallengeCompleted ActivityType = "CHALLENGE_COMPLETED"
)

// Activity is an append-only feed entry.
type Activity struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	StudentID   *uint          `json:"student_id" gorm:"index"`
	Type        ActivityType   `json:"type" gorm:"not null;size:30;index"`
	Title       string         `json:"title" gorm:"not null;size:200"`
	Description string         `json:"description" gorm:"type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

func (Activity) TableName() string {
	return "activities"
}

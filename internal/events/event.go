package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "pelangi-service"
	EventVersion = "1.0"
)

// Event types
const (
	TypeXPGranted          = "gamification.xp_granted"
	TypeLevelUp            = "gamification.level_up"
	TypeBadgeAwarded       = "gamification.badge_awarded"
	TypeChallengeCompleted = "gamification.challenge_completed"
	TypeAssignmentCreated  = "assignment.created"
	TypeSubmissionCreated  = "assignment.submission_created"
	TypeSubmissionGraded   = "assignment.submission_graded"
)

// Event is the envelope every domain event is published in
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== PAYLOADS =====

type XPGrantedData struct {
	StudentID uint   `json:"student_id"`
	Amount    int    `json:"amount"`
	TotalXP   int    `json:"total_xp"`
	Reason    string `json:"reason"`
}

type LevelUpData struct {
	StudentID     uint   `json:"student_id"`
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	LevelName     string `json:"level_name"`
	TotalXP       int    `json:"total_xp"`
}

type BadgeAwardedData struct {
	StudentID uint   `json:"student_id"`
	BadgeID   uint   `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	AwardedBy uint   `json:"awarded_by"`
	XPReward  int    `json:"xp_reward"`
}

type ChallengeCompletedData struct {
	ChallengeID   uint `json:"challenge_id"`
	ParticipantID uint `json:"participant_id"`
	StudentID     uint `json:"student_id"`
	XPAwarded     int  `json:"xp_awarded"`
}

type AssignmentCreatedData struct {
	AssignmentID uint `json:"assignment_id"`
	ClassID      uint `json:"class_id"`
	TeacherID    uint `json:"teacher_id"`
	Submissions  int  `json:"submissions"`
}

type SubmissionData struct {
	SubmissionID uint     `json:"submission_id"`
	AssignmentID uint     `json:"assignment_id"`
	StudentID    uint     `json:"student_id"`
	Status       string   `json:"status"`
	Score        *float64 `json:"score,omitempty"`
	XPAwarded    int      `json:"xp_awarded,omitempty"`
}

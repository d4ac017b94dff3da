package models

import "time"

type Level struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	Level      int     `json:"level" gorm:"uniqueIndex;not null"`
	Name       string  `json:"name" gorm:"not null;size:50"`
	XPRequired int     `json:"xp_required" gorm:"not null"`
	Benefits   string  `json:"benefits" gorm:"type:text"`
	Icon       *string `json:"icon" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Level) TableName() string {
	return "levels"
}

// MaxProtectedLevel is the highest system level that cannot be removed.
const MaxProtectedLevel = 10

func (l *Level) IsProtected() bool {
	return l.Level >= 1 && l.Level <= MaxProtectedLevel
}

// DefaultLevels is the level table seeded on first start.
func DefaultLevels() []Level {
	return []Level{
		{Level: 1, Name: "Pemula", XPRequired: 0, Benefits: "Akses fitur dasar"},
		{Level: 2, Name: "Pelajar", XPRequired: 100, Benefits: "Badge Pelajar"},
		{Level: 3, Name: "Rajin", XPRequired: 250, Benefits: "Badge Rajin"},
		{Level: 4, Name: "Tekun", XPRequired: 500, Benefits: "Badge Tekun"},
		{Level: 5, Name: "Berprestasi", XPRequired: 1000, Benefits: "Badge Berprestasi"},
		{Level: 6, Name: "Unggul", XPRequired: 2000, Benefits: "Badge Unggul"},
		{Level: 7, Name: "Mahir", XPRequired: 3500, Benefits: "Badge Mahir"},
		{Level: 8, Name: "Ahli", XPRequired: 5000, Benefits: "Badge Ahli"},
		{Level: 9, Name: "Master", XPRequired: 7500, Benefits: "Badge Master"},
		{Level: 10, Name: "Legenda", XPRequired: 10000, Benefits: "Badge Legenda"},
	}
}

type StudentXp struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	StudentID        uint       `json:"student_id" gorm:"uniqueIndex;not null"`
	TotalXP          int        `json:"total_xp" gorm:"not null;default:0"`
	Level            int        `json:"level" gorm:"not null;default:1"`
	LevelName        string     `json:"level_name" gorm:"not null;size:50;default:Pemula"`
	AttendanceStreak int        `json:"attendance_streak" gorm:"not null;default:0"`
	AssignmentStreak int        `json:"assignment_streak" gorm:"not null;default:0"`
	LastActivityAt   *time.Time `json:"last_activity_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentXp) TableName() string {
	return "student_xps"
}

type XPOperationKind int

const (
	XPCreate XPOperationKind = iota
	XPIncrement
)

// XPOperation is the only write shape accepted for StudentXp totals.
type XPOperation struct {
	Kind   XPOperationKind
	Amount int
}

type Badge struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description string `json:"description" gorm:"type:text"`
	Icon        string `json:"icon" gorm:"size:50"`
	XPReward    int    `json:"xp_reward" gorm:"not null"`
	IsActive    bool   `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed
	AwardCount int64 `json:"award_count" gorm:"->;-:migration"`
}

func (Badge) TableName() string {
	return "badges"
}

type StudentBadge struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StudentID uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_student_badge"`
	BadgeID   uint      `json:"badge_id" gorm:"not null;uniqueIndex:idx_student_badge;index"`
	AwardedAt time.Time `json:"awarded_at" gorm:"not null"`
	AwardedBy uint      `json:"awarded_by" gorm:"not null"`
	Reason    *string   `json:"reason" gorm:"type:text"`

	Badge   *Badge   `json:"badge,omitempty" gorm:"foreignKey:BadgeID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (StudentBadge) TableName() string {
	return "student_badges"
}

type ChallengeTargetType string

const (
	TargetAllStudents ChallengeTargetType = "ALL_STUDENTS"
	TargetGrade7      ChallengeTargetType = "GRADE_7"
	TargetGrade8      ChallengeTargetType = "GRADE_8"
	TargetGrade9      ChallengeTargetType = "GRADE_9"
)

func (t ChallengeTargetType) IsValid() bool {
	switch t {
	case TargetAllStudents, TargetGrade7, TargetGrade8, TargetGrade9:
		return true
	}
	return false
}

// MatchesGrade reports whether a student in the given grade level is targeted.
func (t ChallengeTargetType) MatchesGrade(gradeLevel int) bool {
	switch t {
	case TargetAllStudents:
		return true
	case TargetGrade7:
		return gradeLevel == 7
	case TargetGrade8:
		return gradeLevel == 8
	case TargetGrade9:
		return gradeLevel == 9
	}
	return false
}

// GradeLevel returns the grade level a targeted challenge is limited to, 0 for everyone.
func (t ChallengeTargetType) GradeLevel() int {
	switch t {
	case TargetGrade7:
		return 7
	case TargetGrade8:
		return 8
	case TargetGrade9:
		return 9
	}
	return 0
}

type ChallengeStatus string

const (
	ChallengeInactive ChallengeStatus = "INACTIVE"
	ChallengeActive   ChallengeStatus = "ACTIVE"
	ChallengeExpired  ChallengeStatus = "EXPIRED"
)

type Challenge struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	Title       string              `json:"title" gorm:"not null;size:200"`
	Description string              `json:"description" gorm:"type:text"`
	Duration    int                 `json:"duration" gorm:"not null"` // days
	TargetType  ChallengeTargetType `json:"target_type" gorm:"not null;size:20"`
	XPReward    int                 `json:"xp_reward" gorm:"not null"`
	IsActive    bool                `json:"is_active" gorm:"not null;default:true;index"`
	StartDate   time.Time           `json:"start_date" gorm:"not null"`
	EndDate     time.Time           `json:"end_date" gorm:"not null;index"`
	CreatedBy   uint                `json:"created_by" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []ChallengeParticipant `json:"participants,omitempty" gorm:"foreignKey:ChallengeID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	Status           ChallengeStatus `json:"status" gorm:"-"`
	ParticipantCount int64           `json:"participant_count" gorm:"-"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// StatusAt derives the lifecycle status of the challenge at the given instant.
func (c *Challenge) StatusAt(now time.Time) ChallengeStatus {
	if !c.IsActive {
		return ChallengeInactive
	}
	if now.After(c.EndDate) {
		return ChallengeExpired
	}
	return ChallengeActive
}

type ParticipantStatus string

const (
	ParticipantJoined    ParticipantStatus = "JOINED"
	ParticipantCompleted ParticipantStatus = "COMPLETED"
)

type ChallengeParticipant struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	ChallengeID uint              `json:"challenge_id" gorm:"not null;uniqueIndex:idx_challenge_student"`
	StudentID   uint              `json:"student_id" gorm:"not null;uniqueIndex:idx_challenge_student;index"`
	Status      ParticipantStatus `json:"status" gorm:"not null;size:10;default:JOINED;index"`
	Progress    int               `json:"progress" gorm:"not null;default:0"`
	JoinedAt    time.Time         `json:"joined_at" gorm:"not null"`
	CompletedAt *time.Time        `json:"completed_at"`
	XPAwarded   int               `json:"xp_awarded" gorm:"not null;default:0"`

	Challenge *Challenge `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
	Student   *Student   `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (ChallengeParticipant) TableName() string {
	return "challenge_participants"
}

package repositories

import (
	"context"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

type LevelRepository interface {
	// List returns every level ordered by ordinal ascending
	List(ctx context.Context) ([]*models.Level, error)
	GetByLevel(ctx context.Context, level int) (*models.Level, error)
	Create(ctx context.Context, level *models.Level) error
	Update(ctx context.Context, level *models.Level) error
	Delete(ctx context.Context, level int) error
}

// StreakKind names a StudentXp streak column.
type StreakKind string

const (
	AttendanceStreak StreakKind = "attendance_streak"
	AssignmentStreak StreakKind = "assignment_streak"
)

type StudentXPRepository interface {
	GetByStudentID(ctx context.Context, studentID uint) (*models.StudentXp, error)
	// Apply performs an additive write. XPIncrement returns ErrNotFound when no row
	// exists; XPCreate upserts, summing with any row inserted concurrently.
	Apply(ctx context.Context, studentID uint, op models.XPOperation) (*models.StudentXp, error)
	UpdateLevel(ctx context.Context, studentID uint, level int, levelName string) error
	BumpStreak(ctx context.Context, studentID uint, kind StreakKind, reset bool) error

	// Leaderboard orders by total XP descending then student name ascending
	Leaderboard(ctx context.Context, limit int, classID *uint) ([]models.LeaderboardEntry, error)
	// Rank returns the 1-based position of the student on the global leaderboard
	Rank(ctx context.Context, studentID uint) (int, error)
}

type BadgeRepository interface {
	Create(ctx context.Context, badge *models.Badge) error
	GetByID(ctx context.Context, id uint) (*models.Badge, error)
	GetByName(ctx context.Context, name string) (*models.Badge, error)
	Update(ctx context.Context, badge *models.Badge) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, activeOnly bool) ([]*models.Badge, error)
	CountAwards(ctx context.Context, badgeID uint) (int64, error)
}

type StudentBadgeRepository interface {
	Create(ctx context.Context, sb *models.StudentBadge) error
	GetByID(ctx context.Context, id uint) (*models.StudentBadge, error)
	Get(ctx context.Context, studentID, badgeID uint) (*models.StudentBadge, error)
	Delete(ctx context.Context, id uint) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudentBadge, error)
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id uint) (*models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ChallengeFilters) ([]*models.Challenge, int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type ChallengeParticipantRepository interface {
	Create(ctx context.Context, participant *models.ChallengeParticipant) error
	GetByID(ctx context.Context, id uint) (*models.ChallengeParticipant, error)
	Get(ctx context.Context, challengeID, studentID uint) (*models.ChallengeParticipant, error)
	Update(ctx context.Context, participant *models.ChallengeParticipant) error
	// UpdateFromStatus writes the row only while its status is still from, else ErrStale
	UpdateFromStatus(ctx context.Context, participant *models.ChallengeParticipant, from models.ParticipantStatus) error
	ListByChallenge(ctx context.Context, challengeID uint, status *models.ParticipantStatus) ([]*models.ChallengeParticipant, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.ChallengeParticipant, error)
	CountByChallenge(ctx context.Context, challengeID uint) (int64, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type challengePostgreSQL struct {
	db *gorm.DB
}

func NewChallengePostgreSQL(db *gorm.DB) repositories.ChallengeRepository {
	return &challengePostgreSQL{db: db}
}

func (r *challengePostgreSQL) Create(ctx context.Context, challenge *models.Challenge) error {
	if err := r.db.WithContext(ctx).Omit("Participants").Create(challenge).Error; err != nil {
		return handleDBError(err, "create challenge")
	}
	return nil
}

func (r *challengePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, id).Error; err != nil {
		return nil, handleDBError(err, "get challenge by id")
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ?", id).
		Count(&challenge.ParticipantCount).Error; err != nil {
		return nil, handleDBError(err, "count challenge participants")
	}
	return &challenge, nil
}

func (r *challengePostgreSQL) Update(ctx context.Context, challenge *models.Challenge) error {
	if err := r.db.WithContext(ctx).Omit("Participants").Save(challenge).Error; err != nil {
		return handleDBError(err, "update challenge")
	}
	return nil
}

func (r *challengePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Challenge{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete challenge")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete challenge")
	}
	return nil
}

func (r *challengePostgreSQL) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error) {
	var total int64

	scope := func(q *gorm.DB) *gorm.DB {
		if filters.IsActive != nil {
			q = q.Where("challenges.is_active = ?", *filters.IsActive)
		}
		if filters.TargetType != nil {
			q = q.Where("challenges.target_type = ?", *filters.TargetType)
		}
		if filters.CreatedBy != nil {
			q = q.Where("challenges.created_by = ?", *filters.CreatedBy)
		}
		return q
	}

	if err := r.db.WithContext(ctx).Model(&models.Challenge{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count challenges")
	}

	var rows []struct {
		models.Challenge
		ParticipantCount int64
	}
	query := r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Select("challenges.*, (SELECT COUNT(*) FROM challenge_participants cp WHERE cp.challenge_id = challenges.id) AS participant_count").
		Scopes(scope).
		Order("challenges.created_at DESC")
	if err := applyPagination(query, filters.Limit, filters.Offset).Find(&rows).Error; err != nil {
		return nil, 0, handleDBError(err, "list challenges")
	}

	challenges := make([]*models.Challenge, 0, len(rows))
	for i := range rows {
		challenge := rows[i].Challenge
		challenge.ParticipantCount = rows[i].ParticipantCount
		challenges = append(challenges, &challenge)
	}
	return challenges, total, nil
}

func (r *challengePostgreSQL) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("is_active = ? AND end_date >= ?", true, now).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count active challenges")
	}
	return count, nil
}

// ===== PARTICIPANTS =====

type challengeParticipantPostgreSQL struct {
	db *gorm.DB
}

func NewChallengeParticipantPostgreSQL(db *gorm.DB) repositories.ChallengeParticipantRepository {
	return &challengeParticipantPostgreSQL{db: db}
}

func (r *challengeParticipantPostgreSQL) Create(ctx context.Context, participant *models.ChallengeParticipant) error {
	if err := r.db.WithContext(ctx).Omit("Challenge", "Student").Create(participant).Error; err != nil {
		return handleDBError(err, "create challenge participant")
	}
	return nil
}

func (r *challengeParticipantPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	if err := r.db.WithContext(ctx).First(&participant, id).Error; err != nil {
		return nil, handleDBError(err, "get challenge participant")
	}
	return &participant, nil
}

func (r *challengeParticipantPostgreSQL) Get(ctx context.Context, challengeID, studentID uint) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND student_id = ?", challengeID, studentID).
		First(&participant).Error; err != nil {
		return nil, handleDBError(err, "get challenge participant")
	}
	return &participant, nil
}

func (r *challengeParticipantPostgreSQL) Update(ctx context.Context, participant *models.ChallengeParticipant) error {
	if err := r.db.WithContext(ctx).Omit("Challenge", "Student").Save(participant).Error; err != nil {
		return handleDBError(err, "update challenge participant")
	}
	return nil
}

func (r *challengeParticipantPostgreSQL) UpdateFromStatus(ctx context.Context, participant *models.ChallengeParticipant, from models.ParticipantStatus) error {
	result := r.db.WithContext(ctx).
		Model(participant).
		Where("status = ?", from).
		Select("*").
		Omit("Challenge", "Student").
		Updates(participant)
	if result.Error != nil {
		return handleDBError(result.Error, "update challenge participant")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update challenge participant %d: %w", participant.ID, repositories.ErrStale)
	}
	return nil
}

func (r *challengeParticipantPostgreSQL) ListByChallenge(ctx context.Context, challengeID uint, status *models.ParticipantStatus) ([]*models.ChallengeParticipant, error) {
	var participants []*models.ChallengeParticipant

	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("challenge_id = ?", challengeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Order("joined_at ASC, id ASC").Find(&participants).Error; err != nil {
		return nil, handleDBError(err, "list challenge participants")
	}
	return participants, nil
}

func (r *challengeParticipantPostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.ChallengeParticipant, error) {
	var participants []*models.ChallengeParticipant
	if err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("student_id = ?", studentID).
		Order("joined_at DESC").
		Find(&participants).Error; err != nil {
		return nil, handleDBError(err, "list student challenges")
	}
	return participants, nil
}

func (r *challengeParticipantPostgreSQL) CountByChallenge(ctx context.Context, challengeID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ?", challengeID).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count challenge participants")
	}
	return count, nil
}

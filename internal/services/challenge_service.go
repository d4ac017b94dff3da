package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

const day = 24 * time.Hour

type challengeService struct {
	serviceBase
	access AccessPolicy
}

func NewChallengeService(deps Dependencies, access AccessPolicy) ChallengeService {
	return &challengeService{serviceBase: newServiceBase(deps), access: access}
}

func (s *challengeService) Create(ctx context.Context, p models.Principal, req *models.ChallengeCreateRequest) (*models.Challenge, error) {
	if err := requireStaff(p, "challenge", "create"); err != nil {
		return nil, err
	}
	if verrs := s.validator.GetBusinessValidator().ValidateChallengeCreate(req); len(verrs) > 0 {
		return nil, FromValidatorErrors(verrs)
	}

	now := s.now()
	challenge := &models.Challenge{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Duration:    req.Duration,
		TargetType:  req.TargetType,
		XPReward:    req.XPReward,
		IsActive:    true,
		StartDate:   now,
		EndDate:     now.Add(time.Duration(req.Duration) * day),
		CreatedBy:   p.UserID,
	}

	s.logger.Info("Creating challenge", "title", challenge.Title, "target", challenge.TargetType, "created_by", p.UserID)

	if err := s.repo.Challenge().Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	challenge.Status = challenge.StatusAt(now)
	return challenge, nil
}

func (s *challengeService) Update(ctx context.Context, p models.Principal, id uint, req *models.ChallengeUpdateRequest) (*models.Challenge, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	challenge, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(p, challenge, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, NewValidationError("title", "must not be blank", *req.Title)
		}
		challenge.Title = title
	}
	if req.Description != nil {
		challenge.Description = *req.Description
	}
	if req.Duration != nil {
		challenge.Duration = *req.Duration
		challenge.EndDate = challenge.StartDate.Add(time.Duration(*req.Duration) * day)
	}
	if req.TargetType != nil {
		challenge.TargetType = *req.TargetType
	}
	if req.XPReward != nil {
		challenge.XPReward = *req.XPReward
	}
	if req.IsActive != nil {
		challenge.IsActive = *req.IsActive
	}

	if err := s.repo.Challenge().Update(ctx, challenge); err != nil {
		return nil, notFoundOr(err, ErrChallengeNotFound, "update challenge")
	}

	s.logger.Info("Challenge updated", "challenge_id", id, "updated_by", p.UserID)
	challenge.Status = challenge.StatusAt(s.now())
	return challenge, nil
}

func (s *challengeService) Delete(ctx context.Context, p models.Principal, id uint) error {
	challenge, err := s.getChallenge(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkManage(p, challenge, "delete"); err != nil {
		return err
	}

	count, err := s.repo.ChallengeParticipant().CountByChallenge(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if count > 0 {
		return NewConflictError("challenge", fmt.Sprintf("challenge has %d participants", count))
	}

	if err := s.repo.Challenge().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrChallengeNotFound, "delete challenge")
	}
	s.logger.Info("Challenge deleted", "challenge_id", id, "deleted_by", p.UserID)
	return nil
}

func (s *challengeService) Get(ctx context.Context, id uint) (*models.Challenge, error) {
	challenge, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	challenge.Status = challenge.StatusAt(s.now())
	return challenge, nil
}

func (s *challengeService) List(ctx context.Context, filters repositories.ChallengeFilters, params models.ListParams) (*models.PaginatedResponse, error) {
	filters.Limit, filters.Offset = listWindow(&params)

	challenges, total, err := s.repo.Challenge().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	now := s.now()
	for _, c := range challenges {
		c.Status = c.StatusAt(now)
	}
	return models.NewPaginatedResponse(challenges, total, params), nil
}

// ===== PARTICIPATION =====

func (s *challengeService) Join(ctx context.Context, p models.Principal, challengeID, studentID uint) (*models.ChallengeParticipant, error) {
	student, err := s.resolveJoiningStudent(ctx, p, studentID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if status := challenge.StatusAt(s.now()); status != models.ChallengeActive {
		return nil, NewConflictError("challenge", "challenge is "+strings.ToLower(string(status)))
	}

	ok, err := s.isTargeted(ctx, challenge, student)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewValidationError("student_id", "student is not targeted by this challenge", student.ID)
	}

	participant, err := s.join(ctx, challenge, student)
	if err != nil {
		return nil, err
	}

	var out outbox
	sid := student.ID
	out.activity(&models.Activity{
		UserID:    p.UserID,
		StudentID: &sid,
		Type:      models.ActivityChallengeJoined,
		Title:     fmt.Sprintf("%s mengikuti tantangan %s", student.FullName, challenge.Title),
		Metadata:  toJSON(map[string]interface{}{"challenge_id": challenge.ID}),
	})
	s.flush(ctx, &out)
	return participant, nil
}

// EnrollTargets joins every active targeted student. Students already taking
// part are skipped and not counted.
func (s *challengeService) EnrollTargets(ctx context.Context, p models.Principal, challengeID uint) (*models.BulkOperationResult, error) {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(p, challenge, "enroll"); err != nil {
		return nil, err
	}
	if status := challenge.StatusAt(s.now()); status != models.ChallengeActive {
		return nil, NewConflictError("challenge", "challenge is "+strings.ToLower(string(status)))
	}

	students, err := s.repo.Student().ListActiveByGradeLevel(ctx, challenge.TargetType.GradeLevel())
	if err != nil {
		return nil, fmt.Errorf("failed to list targeted students: %w", err)
	}

	result := &models.BulkOperationResult{}
	for _, student := range students {
		if _, err := s.repo.ChallengeParticipant().Get(ctx, challenge.ID, student.ID); err == nil {
			continue
		}
		if _, err := s.join(ctx, challenge, student); err != nil {
			if IsConflict(err) {
				continue
			}
			result.Fail(student.ID, err)
			continue
		}
		result.Succeed()
	}

	s.logger.Info("Challenge targets enrolled", "challenge_id", challengeID,
		"successful", result.Successful, "failed", result.Failed)
	return result, nil
}

func (s *challengeService) UpdateProgress(ctx context.Context, p models.Principal, participantID uint, progress int) (*models.ChallengeParticipant, error) {
	if progress < 0 || progress > 100 {
		return nil, NewValidationError("progress", "must be between 0 and 100", progress)
	}

	participant, err := s.getParticipant(ctx, s.repo, participantID)
	if err != nil {
		return nil, err
	}
	challenge, err := s.getChallenge(ctx, participant.ChallengeID)
	if err != nil {
		return nil, err
	}

	if p.IsStudent() {
		if err := s.access.CheckStudentResource(ctx, p, participant.StudentID, 0, nil); err != nil {
			return nil, err
		}
	} else if err := s.checkManage(p, challenge, "update progress"); err != nil {
		return nil, err
	}

	if participant.Status != models.ParticipantJoined {
		return nil, NewConflictError("challenge participant", "participant already completed the challenge")
	}

	participant.Progress = progress
	if err := s.repo.ChallengeParticipant().UpdateFromStatus(ctx, participant, models.ParticipantJoined); err != nil {
		return nil, conflictOr(err, "challenge participant", "participant already completed the challenge", "update participant")
	}
	return participant, nil
}

func (s *challengeService) MarkCompleted(ctx context.Context, p models.Principal, participantID uint) (*models.ChallengeParticipant, error) {
	participant, err := s.getParticipant(ctx, s.repo, participantID)
	if err != nil {
		return nil, err
	}
	challenge, err := s.getChallenge(ctx, participant.ChallengeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(p, challenge, "complete"); err != nil {
		return nil, err
	}

	completed, err := s.complete(ctx, p, challenge, participantID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Challenge participant completed", "challenge_id", challenge.ID,
		"participant_id", participantID, "completed_by", p.UserID)
	return completed, nil
}

// CompleteBulk completes every JOINED participant, each in its own transaction.
func (s *challengeService) CompleteBulk(ctx context.Context, p models.Principal, challengeID uint) (*models.BulkOperationResult, error) {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(p, challenge, "complete"); err != nil {
		return nil, err
	}

	joined := models.ParticipantJoined
	participants, err := s.repo.ChallengeParticipant().ListByChallenge(ctx, challengeID, &joined)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	result := &models.BulkOperationResult{}
	for _, participant := range participants {
		if _, err := s.complete(ctx, p, challenge, participant.ID); err != nil {
			s.logger.Warn("Failed to complete participant", "participant_id", participant.ID, "error", err)
			result.Fail(participant.ID, err)
			continue
		}
		result.Succeed()
	}

	s.logger.Info("Challenge bulk completion finished", "challenge_id", challengeID,
		"successful", result.Successful, "failed", result.Failed, "total", result.Total)
	return result, nil
}

func (s *challengeService) Participants(ctx context.Context, challengeID uint, status *models.ParticipantStatus) ([]*models.ChallengeParticipant, error) {
	if _, err := s.getChallenge(ctx, challengeID); err != nil {
		return nil, err
	}
	participants, err := s.repo.ChallengeParticipant().ListByChallenge(ctx, challengeID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *challengeService) StudentChallenges(ctx context.Context, p models.Principal, studentID uint) ([]*models.ChallengeParticipant, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}

	participants, err := s.repo.ChallengeParticipant().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student challenges: %w", err)
	}
	now := s.now()
	for _, participant := range participants {
		if participant.Challenge != nil {
			participant.Challenge.Status = participant.Challenge.StatusAt(now)
		}
	}
	return participants, nil
}

func (s *challengeService) Stats(ctx context.Context, challengeID uint) (*models.ChallengeStats, error) {
	participants, err := s.Participants(ctx, challengeID, nil)
	if err != nil {
		return nil, err
	}

	stats := &models.ChallengeStats{ChallengeID: challengeID}
	var progressSum int64
	for _, participant := range participants {
		stats.TotalParticipants++
		progressSum += int64(participant.Progress)
		stats.TotalXPAwarded += int64(participant.XPAwarded)
		if participant.Status == models.ParticipantCompleted {
			stats.Completed++
		} else {
			stats.InProgress++
		}
	}
	if stats.TotalParticipants > 0 {
		stats.CompletionRate = percentage(stats.Completed, stats.TotalParticipants)
		stats.AverageProgress = float64(progressSum) / float64(stats.TotalParticipants)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *challengeService) getChallenge(ctx context.Context, id uint) (*models.Challenge, error) {
	challenge, err := s.repo.Challenge().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrChallengeNotFound, "get challenge")
	}
	return challenge, nil
}

func (s *challengeService) getParticipant(ctx context.Context, repo repositories.Repository, id uint) (*models.ChallengeParticipant, error) {
	participant, err := repo.ChallengeParticipant().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrParticipantNotFound, "get participant")
	}
	return participant, nil
}

func (s *challengeService) checkManage(p models.Principal, challenge *models.Challenge, action string) error {
	if p.IsAdmin() || (p.IsTeacher() && challenge.CreatedBy == p.UserID) {
		return nil
	}
	return NewPermissionError(p.UserID, challenge.ID, "challenge", action, "only the creator or an admin may "+action+" this challenge")
}

func (s *challengeService) resolveJoiningStudent(ctx context.Context, p models.Principal, studentID uint) (*models.Student, error) {
	if p.IsStudent() {
		self, err := s.access.StudentForPrincipal(ctx, p)
		if err != nil {
			return nil, err
		}
		if studentID != 0 && studentID != self.ID {
			return nil, NewPermissionError(p.UserID, studentID, "challenge participant", "join", "students may only join for themselves")
		}
		return self, nil
	}

	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *challengeService) isTargeted(ctx context.Context, challenge *models.Challenge, student *models.Student) (bool, error) {
	if challenge.TargetType == models.TargetAllStudents {
		return true, nil
	}
	if student.ClassID == nil {
		return false, nil
	}
	class := student.Class
	if class == nil {
		var err error
		class, err = s.repo.Class().GetByID(ctx, *student.ClassID)
		if err != nil {
			return false, notFoundOr(err, ErrClassNotFound, "get class")
		}
	}
	return challenge.TargetType.MatchesGrade(class.GradeLevel), nil
}

func (s *challengeService) join(ctx context.Context, challenge *models.Challenge, student *models.Student) (*models.ChallengeParticipant, error) {
	participant := &models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		StudentID:   student.ID,
		Status:      models.ParticipantJoined,
		JoinedAt:    s.now(),
	}
	if err := s.repo.ChallengeParticipant().Create(ctx, participant); err != nil {
		return nil, conflictOr(err, "challenge participant", "student already joined this challenge", "join challenge")
	}
	return participant, nil
}

// complete moves one participant from JOINED to COMPLETED and grants the
// reward in the same transaction. The guarded write lets only one of two
// racing completions through.
func (s *challengeService) complete(ctx context.Context, p models.Principal, challenge *models.Challenge, participantID uint) (*models.ChallengeParticipant, error) {
	var (
		participant *models.ChallengeParticipant
		out         outbox
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		participant, err = s.getParticipant(ctx, tx, participantID)
		if err != nil {
			return err
		}
		if participant.Status != models.ParticipantJoined {
			return NewConflictError("challenge participant", "participant already completed the challenge")
		}

		now := s.now()
		participant.Status = models.ParticipantCompleted
		participant.Progress = 100
		participant.CompletedAt = &now
		participant.XPAwarded = challenge.XPReward
		if err := tx.ChallengeParticipant().UpdateFromStatus(ctx, participant, models.ParticipantJoined); err != nil {
			return conflictOr(err, "challenge participant", "participant already completed the challenge", "update participant")
		}

		_, err = s.grantInTx(ctx, tx, &out, xpGrant{
			StudentID: participant.StudentID,
			Amount:    challenge.XPReward,
			Source:    xpSourceChallenge,
			Reason:    "Menyelesaikan tantangan: " + challenge.Title,
			ActorID:   p.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	sid := participant.StudentID
	out.event(events.TypeChallengeCompleted, events.ChallengeCompletedData{
		ChallengeID:   challenge.ID,
		ParticipantID: participant.ID,
		StudentID:     participant.StudentID,
		XPAwarded:     participant.XPAwarded,
	})
	out.activity(&models.Activity{
		UserID:      p.UserID,
		StudentID:   &sid,
		Type:        models.ActivityChallengeCompleted,
		Title:       "Tantangan selesai: " + challenge.Title,
		Description: fmt.Sprintf("+%d XP", participant.XPAwarded),
		Metadata:    toJSON(map[string]interface{}{"challenge_id": challenge.ID, "xp_awarded": participant.XPAwarded}),
	})
	out.afterCommit(func(context.Context) { s.metrics.IncChallengeCompletion() })
	s.flush(ctx, &out)
	return participant, nil
}

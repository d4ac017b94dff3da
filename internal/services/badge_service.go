package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type badgeService struct {
	serviceBase
	access AccessPolicy
}

func NewBadgeService(deps Dependencies, access AccessPolicy) BadgeService {
	return &badgeService{serviceBase: newServiceBase(deps), access: access}
}

func (s *badgeService) Create(ctx context.Context, p models.Principal, req *models.BadgeCreateRequest) (*models.Badge, error) {
	if err := requireAdmin(p, "badge", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	badge := &models.Badge{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		XPReward:    req.XPReward,
		IsActive:    true,
	}
	if err := s.repo.Badge().Create(ctx, badge); err != nil {
		return nil, conflictOr(err, "badge", fmt.Sprintf("badge %q already exists", badge.Name), "create badge")
	}
	s.logger.Info("Badge created", "badge_id", badge.ID, "name", badge.Name, "xp_reward", badge.XPReward)
	return badge, nil
}

func (s *badgeService) Update(ctx context.Context, p models.Principal, id uint, req *models.BadgeUpdateRequest) (*models.Badge, error) {
	if err := requireAdmin(p, "badge", "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	badge, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		badge.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		badge.Description = *req.Description
	}
	if req.Icon != nil {
		badge.Icon = *req.Icon
	}
	if req.XPReward != nil {
		badge.XPReward = *req.XPReward
	}
	if req.IsActive != nil {
		badge.IsActive = *req.IsActive
	}

	if err := s.repo.Badge().Update(ctx, badge); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBadgeNotFound
		}
		return nil, conflictOr(err, "badge", fmt.Sprintf("badge %q already exists", badge.Name), "update badge")
	}
	return badge, nil
}

// Delete refuses badges that have been awarded; deactivate them instead.
func (s *badgeService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if err := requireAdmin(p, "badge", "delete"); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	awards, err := s.repo.Badge().CountAwards(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count badge awards: %w", err)
	}
	if awards > 0 {
		return NewConflictError("badge", fmt.Sprintf("badge has been awarded %d times", awards))
	}
	if err := s.repo.Badge().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrBadgeNotFound, "delete badge")
	}
	s.logger.Info("Badge deleted", "badge_id", id)
	return nil
}

func (s *badgeService) Get(ctx context.Context, id uint) (*models.Badge, error) {
	badge, err := s.repo.Badge().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrBadgeNotFound, "get badge")
	}
	return badge, nil
}

func (s *badgeService) List(ctx context.Context, activeOnly bool) ([]*models.Badge, error) {
	badges, err := s.repo.Badge().List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// Award links the badge to the student and grants its XP reward in one transaction.
func (s *badgeService) Award(ctx context.Context, p models.Principal, badgeID uint, req *models.AwardBadgeRequest) (*models.StudentBadge, error) {
	if err := requireStaff(p, "badge", "award"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	badge, err := s.Get(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if !badge.IsActive {
		return nil, NewConflictError("badge", "badge is not active")
	}
	student, err := s.repo.Student().GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if p.IsTeacher() {
		if student.ClassID == nil {
			return nil, NewPermissionError(p.UserID, student.ID, "badge", "award", "student has no class")
		}
		if err := s.access.CheckClassAccess(ctx, p, *student.ClassID); err != nil {
			return nil, err
		}
	}

	award := &models.StudentBadge{
		StudentID: student.ID,
		BadgeID:   badge.ID,
		AwardedAt: s.now(),
		AwardedBy: p.UserID,
		Reason:    req.Reason,
	}

	var out outbox
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.StudentBadge().Create(ctx, award); err != nil {
			return conflictOr(err, "badge", "student already holds this badge", "award badge")
		}
		_, err := s.grantInTx(ctx, tx, &out, xpGrant{
			StudentID: student.ID,
			Amount:    badge.XPReward,
			Source:    xpSourceBadge,
			Reason:    "Badge: " + badge.Name,
			ActorID:   p.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	out.event(events.TypeBadgeAwarded, events.BadgeAwardedData{
		StudentID: student.ID,
		BadgeID:   badge.ID,
		BadgeName: badge.Name,
		AwardedBy: p.UserID,
		XPReward:  badge.XPReward,
	})
	sid := student.ID
	out.activity(&models.Activity{
		UserID:      p.UserID,
		StudentID:   &sid,
		Type:        models.ActivityBadgeAwarded,
		Title:       fmt.Sprintf("%s mendapat badge %s", student.FullName, badge.Name),
		Description: fmt.Sprintf("+%d XP", badge.XPReward),
		Metadata:    toJSON(map[string]interface{}{"badge_id": badge.ID, "student_badge_id": award.ID}),
	})
	out.afterCommit(func(context.Context) { s.metrics.IncBadgeAwarded() })
	s.flush(ctx, &out)

	award.Badge = badge
	s.logger.Info("Badge awarded", "badge_id", badge.ID, "student_id", student.ID, "awarded_by", p.UserID)
	return award, nil
}

// Revoke removes the award. XP already granted by it is kept.
func (s *badgeService) Revoke(ctx context.Context, p models.Principal, studentBadgeID uint) error {
	if err := requireAdmin(p, "badge", "revoke"); err != nil {
		return err
	}
	if err := s.repo.StudentBadge().Delete(ctx, studentBadgeID); err != nil {
		return notFoundOr(err, ErrBadgeNotFound, "revoke badge")
	}
	s.logger.Info("Badge revoked", "student_badge_id", studentBadgeID, "revoked_by", p.UserID)
	return nil
}

func (s *badgeService) StudentBadges(ctx context.Context, p models.Principal, studentID uint) ([]models.StudentBadge, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}
	badges, err := s.repo.StudentBadge().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student badges: %w", err)
	}
	return badges, nil
}

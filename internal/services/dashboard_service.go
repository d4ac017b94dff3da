package services

import (
	"context"
	"fmt"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 50
)

type dashboardService struct {
	serviceBase
	access AccessPolicy
}

func NewDashboardService(deps Dependencies, access AccessPolicy) DashboardService {
	return &dashboardService{serviceBase: newServiceBase(deps), access: access}
}

// GetStats counts school entities inside the principal's visible classes.
// Teachers additionally see only their own assignments and pending grading.
func (s *dashboardService) GetStats(ctx context.Context, p models.Principal) (*models.DashboardStats, error) {
	s.logger.Info("Getting dashboard stats", "user_id", p.UserID, "role", p.Role)

	classIDs, err := s.access.VisibleClassIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	scope := repositories.DashboardScope{ClassIDs: classIDs, Now: s.now()}
	if p.IsTeacher() {
		teacherID := p.UserID
		scope.TeacherID = &teacherID
	}

	load := func() (*models.DashboardStats, error) {
		stats, err := s.repo.Dashboard().GetStats(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
		}
		return stats, nil
	}

	var stats *models.DashboardStats
	if s.cache != nil {
		stats, err = cache.GetOrLoad(ctx, s.cache.Stats, statsKey(p), cache.StatsCacheConfig.TTL, load)
	} else {
		stats, err = load()
	}
	if err != nil {
		return nil, err
	}

	recent, err := s.RecentActivities(ctx, p, defaultActivityLimit)
	if err != nil {
		s.logger.Warn("Failed to load recent activities", "error", err)
		recent = []models.Activity{}
	}
	stats.RecentActivities = recent
	return stats, nil
}

// RecentActivities returns the newest feed entries: everything for admins,
// entries a teacher produced, or entries about the calling student.
func (s *dashboardService) RecentActivities(ctx context.Context, p models.Principal, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}

	filters := repositories.ActivityFilters{Limit: limit}
	switch {
	case p.IsTeacher():
		userID := p.UserID
		filters.UserID = &userID
	case p.IsStudent():
		student, err := s.access.StudentForPrincipal(ctx, p)
		if err != nil {
			return nil, err
		}
		filters.StudentID = &student.ID
	case !p.IsAdmin():
		return nil, NewPermissionError(p.UserID, 0, "activity", "list", "unknown role")
	}

	activities, err := s.repo.Activity().ListRecent(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}

func statsKey(p models.Principal) string {
	if p.IsAdmin() {
		return "school"
	}
	return fmt.Sprintf("%s:%d", p.Role, p.UserID)
}

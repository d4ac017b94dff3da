package repositories

import (
	"context"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// DashboardScope restricts dashboard counts. ClassIDs nil means the whole school.
type DashboardScope struct {
	ClassIDs  []uint
	TeacherID *uint
	Now       time.Time
}

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	GetStats(ctx context.Context, scope DashboardScope) (*models.DashboardStats, error)
}

type ActivityRepository interface {
	// Create appends a feed entry; activities are never updated
	Create(ctx context.Context, activity *models.Activity) error
	ListRecent(ctx context.Context, filters ActivityFilters) ([]models.Activity, error)
}

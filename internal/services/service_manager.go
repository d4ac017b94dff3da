package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// AssignmentOwnership is "owner_only" or "owner_or_admin"
	AssignmentOwnership string
	DefaultTimeout      time.Duration
}

func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		AssignmentOwnership: OwnerOnly.String(),
		DefaultTimeout:      30 * time.Second,
	}
}

// Validate checks the service manager configuration
func (c *ServiceManagerConfig) Validate() error {
	var problems []string
	if c.DefaultTimeout <= 0 {
		problems = append(problems, "default timeout must be positive")
	}
	switch c.AssignmentOwnership {
	case "", OwnerOnly.String(), OwnerOrAdmin.String():
	default:
		problems = append(problems, fmt.Sprintf("unknown assignment ownership %q", c.AssignmentOwnership))
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %v", problems)
	}
	return nil
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps    Dependencies
	repoMgr repositories.RepositoryManager
	config  ServiceManagerConfig

	access              AccessPolicy
	xpService           XPService
	challengeService    ChallengeService
	assignmentService   AssignmentService
	badgeService        BadgeService
	classService        ClassService
	studentService      StudentService
	gradeService        GradeService
	attendanceService   AttendanceService
	questionService     QuestionService
	dashboardService    DashboardService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager. repoMgr may be nil when the
// caller owns the repository lifecycle, as tests do.
func NewServiceManager(deps Dependencies, repoMgr repositories.RepositoryManager, config ServiceManagerConfig) ServiceManager {
	base := newServiceBase(deps)
	deps.Logger = base.logger
	deps.Validator = base.validator
	deps.Publisher = base.publisher
	return &serviceManager{deps: deps, repoMgr: repoMgr, config: config}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := sm.config.Validate(); err != nil {
		return err
	}
	if sm.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}

	logger := sm.deps.Logger
	logger.Info("Initializing service manager", "assignment_ownership", sm.config.AssignmentOwnership)

	ownership := ParseAssignmentOwnership(sm.config.AssignmentOwnership)
	sm.access = NewAccessPolicy(sm.deps.Repo, logger, ownership)

	sm.xpService = NewXPService(sm.deps, sm.access)
	sm.challengeService = NewChallengeService(sm.deps, sm.access)
	sm.assignmentService = NewAssignmentService(sm.deps, sm.access)
	sm.badgeService = NewBadgeService(sm.deps, sm.access)
	sm.classService = NewClassService(sm.deps, sm.access)
	sm.studentService = NewStudentService(sm.deps, sm.access, sm.xpService)
	sm.gradeService = NewGradeService(sm.deps, sm.access)
	sm.attendanceService = NewAttendanceService(sm.deps, sm.access)
	sm.questionService = NewQuestionService(sm.deps)
	sm.dashboardService = NewDashboardService(sm.deps, sm.access)
	sm.importExportService = NewImportExportService(sm.deps, sm.access, sm.xpService)

	sm.initialized = true
	logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters

func (sm *serviceManager) Access() AccessPolicy {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.access
}

func (sm *serviceManager) XP() XPService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.xpService
}

func (sm *serviceManager) Challenge() ChallengeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.challengeService
}

func (sm *serviceManager) Assignment() AssignmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.assignmentService
}

func (sm *serviceManager) Badge() BadgeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.badgeService
}

func (sm *serviceManager) Class() ClassService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.classService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.studentService
}

func (sm *serviceManager) Grade() GradeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.gradeService
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.attendanceService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.questionService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.dashboardService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.importExportService
}

// Health and lifecycle

// HealthCheck fails on the database only. A missing cache is reported in logs.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if sm.repoMgr != nil {
		if err := sm.repoMgr.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	} else if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	if sm.deps.Cache != nil {
		if err := sm.deps.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
			sm.deps.Logger.Warn("Cache unhealthy", "error", err)
		}
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if sm.repoMgr != nil {
		if err := sm.repoMgr.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user                 repositories.UserRepository
	student              repositories.StudentRepository
	class                repositories.ClassRepository
	subject              repositories.SubjectRepository
	classSubject         repositories.ClassSubjectRepository
	teacherAssignment    repositories.TeacherAssignmentRepository
	enrollment           repositories.EnrollmentRepository
	assignment           repositories.AssignmentRepository
	submission           repositories.SubmissionRepository
	grade                repositories.GradeRepository
	attendance           repositories.AttendanceRepository
	level                repositories.LevelRepository
	studentXP            repositories.StudentXPRepository
	badge                repositories.BadgeRepository
	studentBadge         repositories.StudentBadgeRepository
	challenge            repositories.ChallengeRepository
	challengeParticipant repositories.ChallengeParticipantRepository
	question             repositories.QuestionRepository
	activity             repositories.ActivityRepository
	dashboard            repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	CacheManager *cache.CacheManager
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := config.CacheManager
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(config.RedisClient)
	}

	return newRepository(config.DB, config.RedisClient, cacheManager)
}

func newRepository(db *gorm.DB, redisClient *redis.Client, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:                   db,
		redisClient:          redisClient,
		cacheManager:         cacheManager,
		user:                 NewUserPostgreSQL(db),
		student:              NewStudentPostgreSQL(db),
		class:                NewClassPostgreSQL(db),
		subject:              NewSubjectPostgreSQL(db),
		classSubject:         NewClassSubjectPostgreSQL(db),
		teacherAssignment:    NewTeacherAssignmentPostgreSQL(db),
		enrollment:           NewEnrollmentPostgreSQL(db),
		assignment:           NewAssignmentPostgreSQL(db),
		submission:           NewSubmissionPostgreSQL(db),
		grade:                NewGradePostgreSQL(db),
		attendance:           NewAttendancePostgreSQL(db),
		level:                NewLevelPostgreSQL(db, cacheManager),
		studentXP:            NewStudentXPPostgreSQL(db),
		badge:                NewBadgePostgreSQL(db),
		studentBadge:         NewStudentBadgePostgreSQL(db),
		challenge:            NewChallengePostgreSQL(db),
		challengeParticipant: NewChallengeParticipantPostgreSQL(db),
		question:             NewQuestionPostgreSQL(db),
		activity:             NewActivityPostgreSQL(db),
		dashboard:            NewDashboardRepository(db),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository       { return r.user }
func (r *PostgreSQLRepository) Student() repositories.StudentRepository { return r.student }
func (r *PostgreSQLRepository) Class() repositories.ClassRepository     { return r.class }
func (r *PostgreSQLRepository) Subject() repositories.SubjectRepository { return r.subject }

func (r *PostgreSQLRepository) ClassSubject() repositories.ClassSubjectRepository {
	return r.classSubject
}

func (r *PostgreSQLRepository) TeacherAssignment() repositories.TeacherAssignmentRepository {
	return r.teacherAssignment
}

func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}

func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository {
	return r.assignment
}

func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository {
	return r.submission
}

func (r *PostgreSQLRepository) Grade() repositories.GradeRepository { return r.grade }

func (r *PostgreSQLRepository) Attendance() repositories.AttendanceRepository {
	return r.attendance
}

func (r *PostgreSQLRepository) Level() repositories.LevelRepository { return r.level }

func (r *PostgreSQLRepository) StudentXP() repositories.StudentXPRepository {
	return r.studentXP
}

func (r *PostgreSQLRepository) Badge() repositories.BadgeRepository { return r.badge }

func (r *PostgreSQLRepository) StudentBadge() repositories.StudentBadgeRepository {
	return r.studentBadge
}

func (r *PostgreSQLRepository) Challenge() repositories.ChallengeRepository {
	return r.challenge
}

func (r *PostgreSQLRepository) ChallengeParticipant() repositories.ChallengeParticipantRepository {
	return r.challengeParticipant
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }
func (r *PostgreSQLRepository) Activity() repositories.ActivityRepository { return r.activity }

func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository {
	return r.dashboard
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Every sub-repository of txRepo shares the transaction handle
		txRepo := newRepository(tx, r.redisClient, r.cacheManager)
		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager owns the repository lifecycle for main
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies the database and builds the repository. An unreachable
// Redis is dropped so the service runs without a cache.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if err := rm.config.RedisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, continuing without cache", "error", err)
			rm.config.RedisClient = nil
			rm.config.CacheManager = nil
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}

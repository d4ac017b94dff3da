package repositories

import "context"

// Repository aggregates every repository the services use
type Repository interface {
	// People
	User() UserRepository
	Student() StudentRepository

	// School structure
	Class() ClassRepository
	Subject() SubjectRepository
	ClassSubject() ClassSubjectRepository
	TeacherAssignment() TeacherAssignmentRepository
	Enrollment() EnrollmentRepository

	// Coursework
	Assignment() AssignmentRepository
	Submission() SubmissionRepository
	Grade() GradeRepository
	Attendance() AttendanceRepository

	// Gamification
	Level() LevelRepository
	StudentXP() StudentXPRepository
	Badge() BadgeRepository
	StudentBadge() StudentBadgeRepository
	Challenge() ChallengeRepository
	ChallengeParticipant() ChallengeParticipantRepository

	// Question bank
	Question() QuestionRepository

	// Feed and dashboard
	Activity() ActivityRepository
	Dashboard() DashboardRepository

	// Transaction support. fn receives a repository bound to the transaction;
	// returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

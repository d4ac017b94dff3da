package services

import (
	"context"
	"io"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

type AssignmentResponse struct {
	*models.Assignment
	Stats *models.AssignmentStats `json:"stats,omitempty"`
}

type ClassDetailResponse struct {
	*models.Class
	Subjects []*models.ClassSubject        `json:"subjects"`
	Teachers []*models.ClassTeacherSubject `json:"teachers"`
}

type StudentAssignmentItem struct {
	Submission *models.AssignmentSubmission `json:"submission"`
	Assignment *models.Assignment           `json:"assignment"`
	IsOverdue  bool                         `json:"is_overdue"`
}

type AttendanceSummaryQuery struct {
	From *time.Time
	To   *time.Time
}

// ===== ACCESS POLICY =====

type AccessPolicy interface {
	// Class-subject scope, driven by active ClassTeacherSubject rows
	CheckClassAccess(ctx context.Context, p models.Principal, classID uint) error
	CheckClassSubjectAccess(ctx context.Context, p models.Principal, classID, subjectID uint) error
	CheckStudentResource(ctx context.Context, p models.Principal, studentID, classID uint, subjectID *uint) error
	VisibleClassIDs(ctx context.Context, p models.Principal) ([]uint, error)
	SubjectScope(ctx context.Context, p models.Principal, classID uint) ([]uint, error)

	// Assignment ownership, a separate policy from class scope
	Ownership() AssignmentOwnership
	CheckAssignmentOwnership(p models.Principal, assignment *models.Assignment, action string) error

	// StudentForPrincipal resolves the Student row linked to a SISWA user
	StudentForPrincipal(ctx context.Context, p models.Principal) (*models.Student, error)
}

// ===== GAMIFICATION =====

type XPService interface {
	GrantXP(ctx context.Context, studentID uint, amount int, reason string) (*models.XPGrantResult, error)
	ManualGrant(ctx context.Context, p models.Principal, req *models.GrantXPRequest) (*models.XPGrantResult, error)
	ComputeLevel(ctx context.Context, totalXP int) (*models.LevelInfo, error)
	GetStudentProgress(ctx context.Context, p models.Principal, studentID uint) (*models.StudentProgress, error)
	Leaderboard(ctx context.Context, limit int, classID *uint) ([]models.LeaderboardEntry, error)

	// Level table management
	ListLevels(ctx context.Context) ([]*models.Level, error)
	CreateLevel(ctx context.Context, p models.Principal, req *models.LevelCreateRequest) (*models.Level, error)
	UpdateLevel(ctx context.Context, p models.Principal, level int, req *models.LevelUpdateRequest) (*models.Level, error)
	DeleteLevel(ctx context.Context, p models.Principal, level int) error
}

type ChallengeService interface {
	Create(ctx context.Context, p models.Principal, req *models.ChallengeCreateRequest) (*models.Challenge, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.ChallengeUpdateRequest) (*models.Challenge, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	Get(ctx context.Context, id uint) (*models.Challenge, error)
	List(ctx context.Context, filters repositories.ChallengeFilters, params models.ListParams) (*models.PaginatedResponse, error)

	// Participation
	Join(ctx context.Context, p models.Principal, challengeID, studentID uint) (*models.ChallengeParticipant, error)
	EnrollTargets(ctx context.Context, p models.Principal, challengeID uint) (*models.BulkOperationResult, error)
	UpdateProgress(ctx context.Context, p models.Principal, participantID uint, progress int) (*models.ChallengeParticipant, error)
	MarkCompleted(ctx context.Context, p models.Principal, participantID uint) (*models.ChallengeParticipant, error)
	CompleteBulk(ctx context.Context, p models.Principal, challengeID uint) (*models.BulkOperationResult, error)
	Participants(ctx context.Context, challengeID uint, status *models.ParticipantStatus) ([]*models.ChallengeParticipant, error)
	StudentChallenges(ctx context.Context, p models.Principal, studentID uint) ([]*models.ChallengeParticipant, error)

	Stats(ctx context.Context, challengeID uint) (*models.ChallengeStats, error)
}

type BadgeService interface {
	Create(ctx context.Context, p models.Principal, req *models.BadgeCreateRequest) (*models.Badge, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.BadgeUpdateRequest) (*models.Badge, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	Get(ctx context.Context, id uint) (*models.Badge, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Badge, error)

	Award(ctx context.Context, p models.Principal, badgeID uint, req *models.AwardBadgeRequest) (*models.StudentBadge, error)
	Revoke(ctx context.Context, p models.Principal, studentBadgeID uint) error
	StudentBadges(ctx context.Context, p models.Principal, studentID uint) ([]models.StudentBadge, error)
}

// ===== COURSEWORK =====

type AssignmentService interface {
	Create(ctx context.Context, p models.Principal, req *models.AssignmentCreateRequest) (*models.Assignment, error)
	Get(ctx context.Context, p models.Principal, id uint) (*AssignmentResponse, error)
	List(ctx context.Context, p models.Principal, filters repositories.AssignmentFilters, params models.ListParams) (*models.PaginatedResponse, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.AssignmentUpdateRequest) (*models.Assignment, error)
	UpdateStatus(ctx context.Context, p models.Principal, id uint, status models.AssignmentStatus) (*models.Assignment, error)
	Delete(ctx context.Context, p models.Principal, id uint) error

	// Submission workflow
	Submit(ctx context.Context, p models.Principal, assignmentID uint, req *models.SubmitAssignmentRequest) (*models.AssignmentSubmission, error)
	Grade(ctx context.Context, p models.Principal, submissionID uint, req *models.GradeSubmissionRequest) (*models.AssignmentSubmission, error)
	BulkGrade(ctx context.Context, p models.Principal, assignmentID uint, req *models.BulkGradeRequest) (*models.BulkOperationResult, error)

	Submissions(ctx context.Context, p models.Principal, assignmentID uint) ([]*models.AssignmentSubmission, error)
	StudentAssignments(ctx context.Context, p models.Principal, studentID uint) ([]*StudentAssignmentItem, error)
	Stats(ctx context.Context, p models.Principal, assignmentID uint) (*models.AssignmentStats, error)
}

type GradeService interface {
	Create(ctx context.Context, p models.Principal, req *models.GradeCreateRequest) (*models.Grade, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.GradeUpdateRequest) (*models.Grade, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	List(ctx context.Context, p models.Principal, filters repositories.GradeFilters, params models.ListParams) (*models.PaginatedResponse, error)
	BulkCreate(ctx context.Context, p models.Principal, req *models.BulkGradeCreateRequest) (*models.BulkOperationResult, error)
	StudentRecap(ctx context.Context, p models.Principal, studentID uint) (*models.StudentGradeRecap, error)
}

type AttendanceService interface {
	Record(ctx context.Context, p models.Principal, req *models.AttendanceRecordRequest) (*models.Attendance, error)
	BulkRecord(ctx context.Context, p models.Principal, req *models.BulkAttendanceRequest) (*models.BulkOperationResult, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	List(ctx context.Context, p models.Principal, filters repositories.AttendanceFilters, params models.ListParams) (*models.PaginatedResponse, error)
	Summary(ctx context.Context, p models.Principal, studentID uint, query AttendanceSummaryQuery) (*models.AttendanceSummary, error)
}

// ===== SCHOOL STRUCTURE =====

type ClassService interface {
	// Classes
	CreateClass(ctx context.Context, p models.Principal, req *models.ClassCreateRequest) (*models.Class, error)
	GetClass(ctx context.Context, p models.Principal, id uint) (*ClassDetailResponse, error)
	UpdateClass(ctx context.Context, p models.Principal, id uint, req *models.ClassUpdateRequest) (*models.Class, error)
	DeleteClass(ctx context.Context, p models.Principal, id uint) error
	ListClasses(ctx context.Context, p models.Principal, gradeLevel *int, params models.ListParams) (*models.PaginatedResponse, error)

	// Subjects
	CreateSubject(ctx context.Context, p models.Principal, req *models.SubjectCreateRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, p models.Principal, id uint, req *models.SubjectUpdateRequest) (*models.Subject, error)
	DeleteSubject(ctx context.Context, p models.Principal, id uint) error
	GetSubject(ctx context.Context, id uint) (*models.Subject, error)
	ListSubjects(ctx context.Context, params models.ListParams) (*models.PaginatedResponse, error)

	// Class membership
	AddSubjectToClass(ctx context.Context, p models.Principal, classID, subjectID uint) (*models.ClassSubject, error)
	RemoveSubjectFromClass(ctx context.Context, p models.Principal, classID, subjectID uint) error
	AssignTeacher(ctx context.Context, p models.Principal, classID uint, req *models.AssignTeacherRequest) (*models.ClassTeacherSubject, error)
	UnassignTeacher(ctx context.Context, p models.Principal, classID, teacherID, subjectID uint) error
	BulkAssignStudents(ctx context.Context, p models.Principal, classID uint, req *models.BulkAssignStudentsRequest) (*models.BulkOperationResult, error)
}

type StudentService interface {
	Create(ctx context.Context, p models.Principal, req *models.StudentCreateRequest) (*models.Student, error)
	Get(ctx context.Context, p models.Principal, id uint) (*models.Student, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.StudentUpdateRequest) (*models.Student, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	List(ctx context.Context, p models.Principal, filters repositories.StudentFilters, params models.ListParams) (*models.PaginatedResponse, error)
	Me(ctx context.Context, p models.Principal) (*models.StudentProgress, error)
}

// ===== QUESTION BANK =====

type QuestionService interface {
	Create(ctx context.Context, p models.Principal, req *models.QuestionCreateRequest) (*models.Question, error)
	Get(ctx context.Context, p models.Principal, id uint) (*models.Question, error)
	Update(ctx context.Context, p models.Principal, id uint, req *models.QuestionUpdateRequest) (*models.Question, error)
	Delete(ctx context.Context, p models.Principal, id uint) error
	List(ctx context.Context, p models.Principal, filters repositories.QuestionFilters, params models.ListParams) (*models.PaginatedResponse, error)
	RandomSelection(ctx context.Context, p models.Principal, filters repositories.RandomQuestionFilters) ([]*models.Question, error)
}

// ===== DASHBOARD, FEED, EXPORT =====

type DashboardService interface {
	GetStats(ctx context.Context, p models.Principal) (*models.DashboardStats, error)
	RecentActivities(ctx context.Context, p models.Principal, limit int) ([]models.Activity, error)
}

type ImportExportService interface {
	ExportClassGradeRecap(ctx context.Context, p models.Principal, classID uint, w io.Writer) error
	ExportLeaderboard(ctx context.Context, limit int, classID *uint, w io.Writer) error
	ImportStudents(ctx context.Context, p models.Principal, classID uint, r io.Reader) (*models.BulkOperationResult, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Access() AccessPolicy
	XP() XPService
	Challenge() ChallengeService
	Assignment() AssignmentService

	// Supporting service getters
	Badge() BadgeService
	Class() ClassService
	Student() StudentService
	Grade() GradeService
	Attendance() AttendanceService
	Question() QuestionService
	Dashboard() DashboardService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

package models

import "time"

// ===== CLASS & SUBJECT DTOs =====

type ClassCreateRequest struct {
	Name         string  `json:"name" validate:"required,max=50"`
	GradeLevel   int     `json:"grade_level" validate:"required,min=1,max=12"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,academic_year"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

type ClassUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=50"`
	GradeLevel   *int    `json:"grade_level" validate:"omitempty,min=1,max=12"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,academic_year"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

type SubjectCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Code        string  `json:"code" validate:"required,max=20"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type SubjectUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Code        *string `json:"code" validate:"omitempty,max=20"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type AssignTeacherRequest struct {
	TeacherID uint `json:"teacher_id" validate:"required"`
	SubjectID uint `json:"subject_id" validate:"required"`
}

type BulkAssignStudentsRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,max=200"`
}

// ===== STUDENT DTOs =====

type StudentCreateRequest struct {
	StudentID string  `json:"student_id" validate:"required,nisn"`
	FullName  string  `json:"full_name" validate:"required,max=100"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=L P"`
	ClassID   *uint   `json:"class_id"`
	UserID    *uint   `json:"user_id"`
}

type StudentUpdateRequest struct {
	FullName *string        `json:"full_name" validate:"omitempty,max=100"`
	Gender   *string        `json:"gender" validate:"omitempty,oneof=L P"`
	ClassID  *uint          `json:"class_id"`
	Status   *StudentStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE GRADUATED"`
}

// ===== ASSIGNMENT DTOs =====

type AssignmentCreateRequest struct {
	ClassID      uint             `json:"class_id" validate:"required"`
	SubjectID    *uint            `json:"subject_id"`
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description" validate:"max=5000"`
	Instructions *string          `json:"instructions" validate:"omitempty,max=5000"`
	Points       int              `json:"points" validate:"omitempty,min=1"`
	Deadline     time.Time        `json:"deadline" validate:"required"`
	Type         AssignmentType   `json:"type" validate:"omitempty,assignment_type"`
	Status       AssignmentStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CLOSED"`
}

type AssignmentUpdateRequest struct {
	Title        *string         `json:"title" validate:"omitempty,max=200"`
	Description  *string         `json:"description" validate:"omitempty,max=5000"`
	Instructions *string         `json:"instructions" validate:"omitempty,max=5000"`
	Points       *int            `json:"points" validate:"omitempty,min=1"`
	Deadline     *time.Time      `json:"deadline"`
	Type         *AssignmentType `json:"type" validate:"omitempty,assignment_type"`
}

type AssignmentStatusRequest struct {
	Status AssignmentStatus `json:"status" validate:"required,oneof=DRAFT PUBLISHED CLOSED"`
}

type SubmitAssignmentRequest struct {
	Content     string   `json:"content" validate:"max=20000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,url"`
}

type GradeSubmissionRequest struct {
	Score    float64 `json:"score" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type BulkGradeRequest struct {
	StudentIDs []uint  `json:"student_ids" validate:"required,min=1,max=200"`
	Score      float64 `json:"score" validate:"min=0"`
	Feedback   *string `json:"feedback" validate:"omitempty,max=2000"`
}

// ===== GRADE & ATTENDANCE DTOs =====

type GradeCreateRequest struct {
	StudentID    uint      `json:"student_id" validate:"required"`
	SubjectID    uint      `json:"subject_id" validate:"required"`
	ClassID      uint      `json:"class_id" validate:"required"`
	GradeType    GradeType `json:"grade_type" validate:"required,grade_type"`
	Score        float64   `json:"score" validate:"min=0"`
	MaxScore     float64   `json:"max_score" validate:"omitempty,gt=0"`
	Description  *string   `json:"description" validate:"omitempty,max=500"`
	Semester     *string   `json:"semester" validate:"omitempty,oneof=1 2"`
	AcademicYear *string   `json:"academic_year" validate:"omitempty,academic_year"`
}

type GradeUpdateRequest struct {
	Score       *float64 `json:"score" validate:"omitempty,min=0"`
	MaxScore    *float64 `json:"max_score" validate:"omitempty,gt=0"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
}

type BulkGradeEntry struct {
	StudentID   uint    `json:"student_id" validate:"required"`
	Score       float64 `json:"score" validate:"min=0"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type BulkGradeCreateRequest struct {
	ClassID      uint             `json:"class_id" validate:"required"`
	SubjectID    uint             `json:"subject_id" validate:"required"`
	GradeType    GradeType        `json:"grade_type" validate:"required,grade_type"`
	MaxScore     float64          `json:"max_score" validate:"omitempty,gt=0"`
	Semester     *string          `json:"semester" validate:"omitempty,oneof=1 2"`
	AcademicYear *string          `json:"academic_year" validate:"omitempty,academic_year"`
	Entries      []BulkGradeEntry `json:"entries" validate:"required,min=1,dive"`
}

type AttendanceRecordRequest struct {
	StudentID uint             `json:"student_id" validate:"required"`
	ClassID   uint             `json:"class_id" validate:"required"`
	SubjectID *uint            `json:"subject_id"`
	Date      time.Time        `json:"date" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT SICK PERMISSION LATE"`
	Reason    *string          `json:"reason" validate:"omitempty,max=255"`
	Notes     *string          `json:"notes" validate:"omitempty,max=1000"`
}

type AttendanceEntry struct {
	StudentID uint             `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT SICK PERMISSION LATE"`
	Reason    *string          `json:"reason" validate:"omitempty,max=255"`
}

type BulkAttendanceRequest struct {
	ClassID   uint              `json:"class_id" validate:"required"`
	SubjectID *uint             `json:"subject_id"`
	Date      time.Time         `json:"date" validate:"required"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// ===== GAMIFICATION DTOs =====

type LevelCreateRequest struct {
	Level      int     `json:"level" validate:"required,min=1"`
	Name       string  `json:"name" validate:"required,max=50"`
	XPRequired int     `json:"xp_required" validate:"min=0"`
	Benefits   string  `json:"benefits" validate:"max=1000"`
	Icon       *string `json:"icon" validate:"omitempty,max=50"`
}

type LevelUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=50"`
	XPRequired *int    `json:"xp_required" validate:"omitempty,min=0"`
	Benefits   *string `json:"benefits" validate:"omitempty,max=1000"`
	Icon       *string `json:"icon" validate:"omitempty,max=50"`
}

type BadgeCreateRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Icon        string `json:"icon" validate:"max=50"`
	XPReward    int    `json:"xp_reward" validate:"xp_reward"`
}

type BadgeUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
	XPReward    *int    `json:"xp_reward" validate:"omitempty,xp_reward"`
	IsActive    *bool   `json:"is_active"`
}

type AwardBadgeRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
}

type ChallengeCreateRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Duration    int                 `json:"duration" validate:"challenge_duration"`
	TargetType  ChallengeTargetType `json:"target_type" validate:"required,target_type"`
	XPReward    int                 `json:"xp_reward" validate:"xp_reward"`
}

type ChallengeUpdateRequest struct {
	Title       *string              `json:"title" validate:"omitempty,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	Duration    *int                 `json:"duration" validate:"omitempty,challenge_duration"`
	TargetType  *ChallengeTargetType `json:"target_type" validate:"omitempty,target_type"`
	XPReward    *int                 `json:"xp_reward" validate:"omitempty,xp_reward"`
	IsActive    *bool                `json:"is_active"`
}

type ChallengeProgressRequest struct {
	Progress int `json:"progress" validate:"min=0,max=100"`
}

type GrantXPRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Amount    int    `json:"amount" validate:"min=0,max=10000"`
	Reason    string `json:"reason" validate:"required,max=200"`
}

// ===== QUESTION BANK DTOs =====

type QuestionCreateRequest struct {
	SubjectID     *uint           `json:"subject_id"`
	Type          QuestionType    `json:"type" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE ESSAY SHORT_ANSWER"`
	Difficulty    DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Text          string          `json:"text" validate:"required,max=5000"`
	Options       []string        `json:"options" validate:"omitempty,max=10"`
	CorrectAnswer string          `json:"correct_answer" validate:"max=2000"`
	Explanation   *string         `json:"explanation" validate:"omitempty,max=2000"`
	GradeLevel    *int            `json:"grade_level" validate:"omitempty,min=1,max=12"`
	Tags          []string        `json:"tags" validate:"omitempty,max=20"`
}

type QuestionUpdateRequest struct {
	SubjectID     *uint            `json:"subject_id"`
	Difficulty    *DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Text          *string          `json:"text" validate:"omitempty,max=5000"`
	Options       []string         `json:"options" validate:"omitempty,max=10"`
	CorrectAnswer *string          `json:"correct_answer" validate:"omitempty,max=2000"`
	Explanation   *string          `json:"explanation" validate:"omitempty,max=2000"`
	GradeLevel    *int             `json:"grade_level" validate:"omitempty,min=1,max=12"`
	Tags          []string         `json:"tags" validate:"omitempty,max=20"`
}

// ===== PAGINATION & FILTERING =====

type ListParams struct {
	Page    int    `json:"page" form:"page" validate:"min=0"`
	Size    int    `json:"size" form:"size" validate:"min=0,max=100"`
	Search  string `json:"search" form:"search"`
	SortBy  string `json:"sort_by" form:"sort_by"`
	SortDir string `json:"sort_dir" form:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

// Normalize fills paging defaults.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.SortDir == "" {
		p.SortDir = "desc"
	}
}

func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
}

func NewPaginatedResponse(content interface{}, total int64, params ListParams) *PaginatedResponse {
	pages := 0
	if params.Size > 0 {
		pages = int((total + int64(params.Size) - 1) / int64(params.Size))
	}
	return &PaginatedResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Size:          params.Size,
		Page:          params.Page,
	}
}

// ===== RESULT & STATS DTOs =====

// BulkOperationResult is the tally every bulk operation returns.
type BulkOperationResult struct {
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Total      int                  `json:"total"`
	Errors     []BulkOperationError `json:"errors,omitempty"`
}

type BulkOperationError struct {
	ItemID uint   `json:"item_id"`
	Row    int    `json:"row,omitempty"`
	Error  string `json:"error"`
}

func (r *BulkOperationResult) Succeed() {
	r.Successful++
	r.Total++
}

func (r *BulkOperationResult) Fail(itemID uint, err error) {
	r.Failed++
	r.Total++
	r.Errors = append(r.Errors, BulkOperationError{ItemID: itemID, Error: err.Error()})
}

// FailRow records a failure for a spreadsheet row that has no stored id yet.
func (r *BulkOperationResult) FailRow(row int, err error) {
	r.Failed++
	r.Total++
	r.Errors = append(r.Errors, BulkOperationError{Row: row, Error: err.Error()})
}

type LevelInfo struct {
	Level               int     `json:"level"`
	LevelName           string  `json:"level_name"`
	Benefits            string  `json:"benefits"`
	CurrentXP           int     `json:"current_xp"`
	XPForCurrentLevel   int     `json:"xp_for_current_level"`
	XPForNextLevel      *int    `json:"xp_for_next_level"`
	ProgressToNextLevel float64 `json:"progress_to_next_level"`
	IsMaxLevel          bool    `json:"is_max_level"`
}

type StudentProgress struct {
	StudentID uint           `json:"student_id"`
	FullName  string         `json:"full_name"`
	XP        StudentXp      `json:"xp"`
	LevelInfo LevelInfo      `json:"level_info"`
	Badges    []StudentBadge `json:"badges"`
	Rank      int            `json:"rank,omitempty"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	StudentID uint   `json:"student_id"`
	FullName  string `json:"full_name"`
	ClassID   *uint  `json:"class_id"`
	ClassName string `json:"class_name"`
	TotalXP   int    `json:"total_xp"`
	Level     int    `json:"level"`
	LevelName string `json:"level_name"`
}

type XPGrantResult struct {
	StudentID     uint `json:"student_id"`
	Amount        int  `json:"amount"`
	TotalXP       int  `json:"total_xp"`
	PreviousLevel int  `json:"previous_level"`
	Level         int  `json:"level"`
	LeveledUp     bool `json:"leveled_up"`
}

type ChallengeStats struct {
	ChallengeID       uint    `json:"challenge_id"`
	TotalParticipants int64   `json:"total_participants"`
	Completed         int64   `json:"completed"`
	InProgress        int64   `json:"in_progress"`
	CompletionRate    float64 `json:"completion_rate"`
	AverageProgress   float64 `json:"average_progress"`
	TotalXPAwarded    int64   `json:"total_xp_awarded"`
}

type AssignmentStats struct {
	AssignmentID   uint    `json:"assignment_id"`
	TotalStudents  int64   `json:"total_students"`
	NotSubmitted   int64   `json:"not_submitted"`
	Submitted      int64   `json:"submitted"`
	LateSubmitted  int64   `json:"late_submitted"`
	Graded         int64   `json:"graded"`
	AverageScore   float64 `json:"average_score"`
	SubmissionRate float64 `json:"submission_rate"`
}

type SubjectGradeRecap struct {
	SubjectID   uint    `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	GradeCount  int64   `json:"grade_count"`
	Average     float64 `json:"average"`
}

type StudentGradeRecap struct {
	StudentID uint                `json:"student_id"`
	FullName  string              `json:"full_name"`
	Subjects  []SubjectGradeRecap `json:"subjects"`
	Overall   float64             `json:"overall"`
}

type AttendanceSummary struct {
	StudentID  uint    `json:"student_id"`
	Total      int64   `json:"total"`
	Present    int64   `json:"present"`
	Absent     int64   `json:"absent"`
	Sick       int64   `json:"sick"`
	Permission int64   `json:"permission"`
	Late       int64   `json:"late"`
	Rate       float64 `json:"rate"`
}

type DashboardStats struct {
	TotalStudents    int64      `json:"total_students"`
	TotalClasses     int64      `json:"total_classes"`
	TotalSubjects    int64      `json:"total_subjects"`
	TotalAssignments int64      `json:"total_assignments"`
	ActiveChallenges int64      `json:"active_challenges"`
	PendingGrading   int64      `json:"pending_grading"`
	RecentActivities []Activity `json:"recent_activities"`
}

// ===== RESPONSE ENVELOPE =====

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

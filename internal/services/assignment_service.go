package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type assignmentService struct {
	serviceBase
	access AccessPolicy
}

func NewAssignmentService(deps Dependencies, access AccessPolicy) AssignmentService {
	return &assignmentService{serviceBase: newServiceBase(deps), access: access}
}

// ===== ASSIGNMENT CRUD =====

func (s *assignmentService) Create(ctx context.Context, p models.Principal, req *models.AssignmentCreateRequest) (*models.Assignment, error) {
	if err := requireStaff(p, "assignment", "create"); err != nil {
		return nil, err
	}
	if verrs := s.validator.GetBusinessValidator().ValidateAssignmentCreate(req); len(verrs) > 0 {
		return nil, FromValidatorErrors(verrs)
	}

	if _, err := s.repo.Class().GetByID(ctx, req.ClassID); err != nil {
		return nil, notFoundOr(err, ErrClassNotFound, "get class")
	}
	if err := s.access.CheckClassAccess(ctx, p, req.ClassID); err != nil {
		return nil, err
	}
	if req.SubjectID != nil {
		if _, err := s.repo.Subject().GetByID(ctx, *req.SubjectID); err != nil {
			return nil, notFoundOr(err, ErrSubjectNotFound, "get subject")
		}
	}

	assignment := &models.Assignment{
		TeacherID:    p.UserID,
		ClassID:      req.ClassID,
		SubjectID:    req.SubjectID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Instructions: req.Instructions,
		Points:       req.Points,
		Deadline:     req.Deadline,
		Type:         req.Type,
		Status:       req.Status,
	}
	if assignment.Points == 0 {
		assignment.Points = models.DefaultAssignmentPoints
	}
	if assignment.Type == "" {
		assignment.Type = models.AssignmentTugasHarian
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentDraft
	}

	s.logger.Info("Creating assignment", "title", assignment.Title, "class_id", assignment.ClassID, "teacher_id", p.UserID)

	var provisioned int
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Assignment().Create(ctx, assignment); err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		students, err := tx.Student().ListByClass(ctx, assignment.ClassID)
		if err != nil {
			return fmt.Errorf("failed to list class students: %w", err)
		}
		submissions := make([]*models.AssignmentSubmission, 0, len(students))
		for _, student := range students {
			submissions = append(submissions, &models.AssignmentSubmission{
				AssignmentID: assignment.ID,
				StudentID:    student.ID,
				Status:       models.SubmissionNotSubmitted,
				Origin:       models.OriginStudentSubmitted,
			})
		}
		if err := tx.Submission().CreateBatch(ctx, submissions); err != nil {
			return fmt.Errorf("failed to provision submissions: %w", err)
		}
		provisioned = len(submissions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out outbox
	out.event(events.TypeAssignmentCreated, events.AssignmentCreatedData{
		AssignmentID: assignment.ID,
		ClassID:      assignment.ClassID,
		TeacherID:    assignment.TeacherID,
		Submissions:  provisioned,
	})
	out.activity(&models.Activity{
		UserID:   p.UserID,
		Type:     models.ActivityAssignmentCreated,
		Title:    "Tugas baru: " + assignment.Title,
		Metadata: toJSON(map[string]interface{}{"assignment_id": assignment.ID, "class_id": assignment.ClassID}),
	})
	out.afterCommit(s.invalidateStats)
	s.flush(ctx, &out)

	s.logger.Info("Assignment created", "assignment_id", assignment.ID, "submissions", provisioned)
	return assignment, nil
}

func (s *assignmentService) Get(ctx context.Context, p models.Principal, id uint) (*AssignmentResponse, error) {
	assignment, err := s.getAssignment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, p, assignment); err != nil {
		return nil, err
	}

	resp := &AssignmentResponse{Assignment: assignment}
	if !p.IsStudent() {
		stats, err := s.stats(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}
		resp.Stats = stats
	}
	return resp, nil
}

// List scopes staff to their own assignments unless admins may act on every
// assignment. Students see published work of their own class.
func (s *assignmentService) List(ctx context.Context, p models.Principal, filters repositories.AssignmentFilters, params models.ListParams) (*models.PaginatedResponse, error) {
	filters.Limit, filters.Offset = listWindow(&params)
	if filters.SortBy == "" {
		filters.SortBy = params.SortBy
	}
	if filters.SortOrder == "" {
		filters.SortOrder = params.SortDir
	}
	if filters.Search == "" {
		filters.Search = params.Search
	}

	switch {
	case p.IsStudent():
		student, err := s.access.StudentForPrincipal(ctx, p)
		if err != nil {
			return nil, err
		}
		if student.ClassID == nil {
			return models.NewPaginatedResponse([]*models.Assignment{}, 0, params), nil
		}
		published := models.AssignmentPublished
		filters.ClassID = student.ClassID
		filters.Status = &published
		filters.TeacherID = nil
	case p.IsAdmin() && s.access.Ownership() == OwnerOrAdmin:
	default:
		teacherID := p.UserID
		filters.TeacherID = &teacherID
	}

	assignments, total, err := s.repo.Assignment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return models.NewPaginatedResponse(assignments, total, params), nil
}

func (s *assignmentService) Update(ctx context.Context, p models.Principal, id uint, req *models.AssignmentUpdateRequest) (*models.Assignment, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, NewValidationError("title", "must not be blank", *req.Title)
		}
		assignment.Title = title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.Instructions != nil {
		assignment.Instructions = req.Instructions
	}
	if req.Points != nil {
		assignment.Points = *req.Points
	}
	if req.Deadline != nil {
		assignment.Deadline = *req.Deadline
	}
	if req.Type != nil {
		assignment.Type = *req.Type
	}

	if err := s.repo.Assignment().Update(ctx, assignment); err != nil {
		return nil, notFoundOr(err, ErrAssignmentNotFound, "update assignment")
	}
	s.logger.Info("Assignment updated", "assignment_id", id, "updated_by", p.UserID)
	return assignment, nil
}

func (s *assignmentService) UpdateStatus(ctx context.Context, p models.Principal, id uint, status models.AssignmentStatus) (*models.Assignment, error) {
	if !status.IsValid() {
		return nil, NewValidationError("status", "must be one of DRAFT PUBLISHED CLOSED", status)
	}

	assignment, err := s.getAssignment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "update"); err != nil {
		return nil, err
	}

	previous := assignment.Status
	assignment.Status = status
	if err := s.repo.Assignment().Update(ctx, assignment); err != nil {
		return nil, notFoundOr(err, ErrAssignmentNotFound, "update assignment status")
	}
	s.logger.Info("Assignment status changed", "assignment_id", id, "from", previous, "to", status)
	return assignment, nil
}

func (s *assignmentService) Delete(ctx context.Context, p models.Principal, id uint) error {
	assignment, err := s.getAssignment(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "delete"); err != nil {
		return err
	}

	if err := s.repo.Assignment().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrAssignmentNotFound, "delete assignment")
	}
	s.logger.Info("Assignment deleted", "assignment_id", id, "deleted_by", p.UserID)
	s.invalidateStats(ctx)
	return nil
}

// ===== SUBMISSION WORKFLOW =====

func (s *assignmentService) Submit(ctx context.Context, p models.Principal, assignmentID uint, req *models.SubmitAssignmentRequest) (*models.AssignmentSubmission, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	student, err := s.access.StudentForPrincipal(ctx, p)
	if err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, s.repo, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentPublished {
		return nil, NewConflictError("assignment", "assignment is not open for submissions")
	}

	var submission *models.AssignmentSubmission
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		submission, err = tx.Submission().GetByAssignmentAndStudent(ctx, assignmentID, student.ID)
		if err != nil {
			return notFoundOr(err, ErrSubmissionNotFound, "get submission")
		}
		if submission.Status != models.SubmissionNotSubmitted {
			return NewConflictError("submission", "already submitted")
		}
		from := repositories.SubmissionGuard{Status: submission.Status, XPAwarded: submission.XPAwarded}

		now := s.now()
		late := now.After(assignment.Deadline)
		submission.Status = models.SubmissionSubmitted
		if late {
			submission.Status = models.SubmissionLateSubmitted
		}
		submission.Origin = models.OriginStudentSubmitted
		submission.Content = req.Content
		submission.Attachments = toJSON(req.Attachments)
		submission.SubmittedAt = &now
		if err := tx.Submission().UpdateFrom(ctx, submission, from); err != nil {
			return conflictOr(err, "submission", "already submitted", "update submission")
		}

		if err := tx.StudentXP().BumpStreak(ctx, student.ID, repositories.AssignmentStreak, late); err != nil &&
			!repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to update assignment streak: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out outbox
	sid := student.ID
	out.event(events.TypeSubmissionCreated, events.SubmissionData{
		SubmissionID: submission.ID,
		AssignmentID: assignmentID,
		StudentID:    student.ID,
		Status:       string(submission.Status),
	})
	out.activity(&models.Activity{
		UserID:    p.UserID,
		StudentID: &sid,
		Type:      models.ActivitySubmission,
		Title:     fmt.Sprintf("%s mengumpulkan %s", student.FullName, assignment.Title),
		Metadata:  toJSON(map[string]interface{}{"assignment_id": assignmentID, "status": submission.Status}),
	})
	status := string(submission.Status)
	out.afterCommit(func(context.Context) { s.metrics.IncSubmission(status) })
	s.flush(ctx, &out)

	s.logger.Info("Assignment submitted", "assignment_id", assignmentID, "student_id", student.ID, "status", submission.Status)
	return submission, nil
}

func (s *assignmentService) Grade(ctx context.Context, p models.Principal, submissionID uint, req *models.GradeSubmissionRequest) (*models.AssignmentSubmission, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOr(err, ErrSubmissionNotFound, "get submission")
	}
	assignment, err := s.getAssignment(ctx, s.repo, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "grade"); err != nil {
		return nil, err
	}
	if err := checkScore(req.Score, assignment.Points); err != nil {
		return nil, err
	}

	var (
		graded *models.AssignmentSubmission
		out    outbox
	)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		current, err := tx.Submission().GetByID(ctx, submissionID)
		if err != nil {
			return notFoundOr(err, ErrSubmissionNotFound, "get submission")
		}
		graded, err = s.gradeInTx(ctx, tx, &out, p, assignment, current, req.Score, req.Feedback)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &out)
	s.logger.Info("Submission graded", "submission_id", submissionID, "score", req.Score, "xp_awarded", graded.XPAwarded)
	return graded, nil
}

// BulkGrade grades each listed student in its own transaction. Students with
// no submission row get a backfilled one.
func (s *assignmentService) BulkGrade(ctx context.Context, p models.Principal, assignmentID uint, req *models.BulkGradeRequest) (*models.BulkOperationResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, s.repo, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "grade"); err != nil {
		return nil, err
	}
	if err := checkScore(req.Score, assignment.Points); err != nil {
		return nil, err
	}

	result := &models.BulkOperationResult{}
	for _, studentID := range req.StudentIDs {
		var out outbox
		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			submission, err := s.submissionForGrading(ctx, tx, assignment, studentID)
			if err != nil {
				return err
			}
			_, err = s.gradeInTx(ctx, tx, &out, p, assignment, submission, req.Score, req.Feedback)
			return err
		})
		if err != nil {
			s.logger.Warn("Bulk grade failed for student", "assignment_id", assignmentID, "student_id", studentID, "error", err)
			result.Fail(studentID, err)
			continue
		}
		s.flush(ctx, &out)
		result.Succeed()
	}

	s.logger.Info("Bulk grading finished", "assignment_id", assignmentID,
		"successful", result.Successful, "failed", result.Failed, "total", result.Total)
	return result, nil
}

func (s *assignmentService) Submissions(ctx context.Context, p models.Principal, assignmentID uint) ([]*models.AssignmentSubmission, error) {
	assignment, err := s.getAssignment(ctx, s.repo, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "view submissions of"); err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *assignmentService) StudentAssignments(ctx context.Context, p models.Principal, studentID uint) ([]*StudentAssignmentItem, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}

	now := s.now()
	items := make([]*StudentAssignmentItem, 0, len(submissions))
	for _, submission := range submissions {
		assignment := submission.Assignment
		if assignment == nil {
			continue
		}
		if p.IsStudent() && assignment.Status == models.AssignmentDraft {
			continue
		}
		submission.Assignment = nil
		items = append(items, &StudentAssignmentItem{
			Submission: submission,
			Assignment: assignment,
			IsOverdue:  submission.Status == models.SubmissionNotSubmitted && now.After(assignment.Deadline),
		})
	}
	return items, nil
}

func (s *assignmentService) Stats(ctx context.Context, p models.Principal, assignmentID uint) (*models.AssignmentStats, error) {
	assignment, err := s.getAssignment(ctx, s.repo, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAssignmentOwnership(p, assignment, "view statistics of"); err != nil {
		return nil, err
	}
	return s.stats(ctx, assignmentID)
}

// ===== HELPERS =====

func (s *assignmentService) getAssignment(ctx context.Context, repo repositories.Repository, id uint) (*models.Assignment, error) {
	assignment, err := repo.Assignment().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrAssignmentNotFound, "get assignment")
	}
	return assignment, nil
}

// checkRead applies the ownership policy to staff, so Get agrees with List.
// Students read non-draft work of their own class.
func (s *assignmentService) checkRead(ctx context.Context, p models.Principal, assignment *models.Assignment) error {
	if !p.IsStudent() {
		return s.access.CheckAssignmentOwnership(p, assignment, "view")
	}
	student, err := s.access.StudentForPrincipal(ctx, p)
	if err != nil {
		return err
	}
	if student.ClassID == nil || *student.ClassID != assignment.ClassID || assignment.Status == models.AssignmentDraft {
		return NewPermissionError(p.UserID, assignment.ID, "assignment", "view", "assignment is not available to this student")
	}
	return nil
}

func checkScore(score float64, points int) error {
	if score < 0 || score > float64(points) {
		return NewValidationError("score", fmt.Sprintf("must be between 0 and %d", points), score)
	}
	return nil
}

func (s *assignmentService) submissionForGrading(ctx context.Context, tx repositories.Repository, assignment *models.Assignment, studentID uint) (*models.AssignmentSubmission, error) {
	submission, err := tx.Submission().GetByAssignmentAndStudent(ctx, assignment.ID, studentID)
	if err == nil {
		return submission, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if _, err := tx.Student().GetByID(ctx, studentID); err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	submission = &models.AssignmentSubmission{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		Status:       models.SubmissionNotSubmitted,
		Origin:       models.OriginTeacherBackfilled,
		Content:      models.BackfilledSubmissionContent,
	}
	if err := tx.Submission().Create(ctx, submission); err != nil {
		return nil, conflictOr(err, "submission", "submission already exists", "create backfilled submission")
	}
	return submission, nil
}

// gradeInTx records the score and grants only the XP not yet awarded for this
// submission, so re-grading never takes XP away. The write is guarded on the
// status and XP read, so a concurrent grade turns into a conflict instead of a
// second grant.
func (s *assignmentService) gradeInTx(ctx context.Context, tx repositories.Repository, out *outbox, p models.Principal,
	assignment *models.Assignment, submission *models.AssignmentSubmission, score float64, feedback *string) (*models.AssignmentSubmission, error) {

	from := repositories.SubmissionGuard{Status: submission.Status, XPAwarded: submission.XPAwarded}
	now := s.now()
	earned := XPForScore(score, assignment.Points)
	delta := earned - submission.XPAwarded

	submission.Score = &score
	submission.Feedback = feedback
	submission.Status = models.SubmissionGraded
	submission.GradedAt = &now
	submission.GradedBy = &p.UserID
	if delta > 0 {
		submission.XPAwarded = earned
	}
	if err := tx.Submission().UpdateFrom(ctx, submission, from); err != nil {
		return nil, conflictOr(err, "submission", "submission was graded concurrently", "update submission")
	}

	if delta > 0 {
		if _, err := s.grantInTx(ctx, tx, out, xpGrant{
			StudentID: submission.StudentID,
			Amount:    delta,
			Source:    xpSourceSubmission,
			Reason:    "Nilai tugas: " + assignment.Title,
			ActorID:   p.UserID,
		}); err != nil {
			return nil, err
		}
	}

	sid := submission.StudentID
	out.event(events.TypeSubmissionGraded, events.SubmissionData{
		SubmissionID: submission.ID,
		AssignmentID: assignment.ID,
		StudentID:    submission.StudentID,
		Status:       string(submission.Status),
		Score:        submission.Score,
		XPAwarded:    submission.XPAwarded,
	})
	out.activity(&models.Activity{
		UserID:      p.UserID,
		StudentID:   &sid,
		Type:        models.ActivitySubmissionGraded,
		Title:       "Tugas dinilai: " + assignment.Title,
		Description: fmt.Sprintf("Nilai %.1f/%d", score, assignment.Points),
		Metadata:    toJSON(map[string]interface{}{"assignment_id": assignment.ID, "submission_id": submission.ID, "score": score}),
	})
	out.afterCommit(func(context.Context) { s.metrics.IncSubmissionGraded() })
	return submission, nil
}

func (s *assignmentService) stats(ctx context.Context, assignmentID uint) (*models.AssignmentStats, error) {
	counts, err := s.repo.Submission().CountByStatus(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	avg, err := s.repo.Submission().AverageScore(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}

	stats := &models.AssignmentStats{
		AssignmentID:  assignmentID,
		NotSubmitted:  counts[models.SubmissionNotSubmitted],
		Submitted:     counts[models.SubmissionSubmitted],
		LateSubmitted: counts[models.SubmissionLateSubmitted],
		Graded:        counts[models.SubmissionGraded],
		AverageScore:  avg,
	}
	stats.TotalStudents = stats.NotSubmitted + stats.Submitted + stats.LateSubmitted + stats.Graded
	stats.SubmissionRate = percentage(stats.Submitted+stats.LateSubmitted+stats.Graded, stats.TotalStudents)
	return stats, nil
}

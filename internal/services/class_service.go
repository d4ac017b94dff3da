package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type classService struct {
	serviceBase
	access AccessPolicy
}

func NewClassService(deps Dependencies, access AccessPolicy) ClassService {
	return &classService{serviceBase: newServiceBase(deps), access: access}
}

// ===== CLASSES =====

func (s *classService) CreateClass(ctx context.Context, p models.Principal, req *models.ClassCreateRequest) (*models.Class, error) {
	if err := requireAdmin(p, "class", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:         strings.TrimSpace(req.Name),
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
		Description:  req.Description,
	}

	s.logger.Info("Creating class", "name", class.Name, "grade_level", class.GradeLevel)

	if err := s.repo.Class().Create(ctx, class); err != nil {
		return nil, conflictOr(err, "class", fmt.Sprintf("class %q already exists", class.Name), "create class")
	}
	s.invalidateStats(ctx)
	return class, nil
}

func (s *classService) GetClass(ctx context.Context, p models.Principal, id uint) (*ClassDetailResponse, error) {
	class, err := s.getClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkClassRead(ctx, p, class.ID); err != nil {
		return nil, err
	}

	subjects, err := s.repo.ClassSubject().ListByClass(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list class subjects: %w", err)
	}
	teachers, err := s.repo.TeacherAssignment().ListByClass(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list class teachers: %w", err)
	}
	return &ClassDetailResponse{Class: class, Subjects: subjects, Teachers: teachers}, nil
}

func (s *classService) UpdateClass(ctx context.Context, p models.Principal, id uint, req *models.ClassUpdateRequest) (*models.Class, error) {
	if err := requireAdmin(p, "class", "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	class, err := s.getClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("name", "must not be blank", *req.Name)
		}
		class.Name = name
	}
	if req.GradeLevel != nil {
		class.GradeLevel = *req.GradeLevel
	}
	if req.AcademicYear != nil {
		class.AcademicYear = req.AcademicYear
	}
	if req.Description != nil {
		class.Description = req.Description
	}

	if err := s.repo.Class().Update(ctx, class); err != nil {
		return nil, conflictOr(err, "class", fmt.Sprintf("class %q already exists", class.Name), "update class")
	}
	s.logger.Info("Class updated", "class_id", id)
	return class, nil
}

// DeleteClass refuses while students are still placed in the class.
func (s *classService) DeleteClass(ctx context.Context, p models.Principal, id uint) error {
	if err := requireAdmin(p, "class", "delete"); err != nil {
		return err
	}
	if _, err := s.getClass(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Student().CountByClass(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count class students: %w", err)
	}
	if count > 0 {
		return NewConflictError("class", fmt.Sprintf("class still has %d students", count))
	}

	if err := s.repo.Class().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrClassNotFound, "delete class")
	}
	s.logger.Info("Class deleted", "class_id", id)
	s.invalidateStats(ctx)
	return nil
}

func (s *classService) ListClasses(ctx context.Context, p models.Principal, gradeLevel *int, params models.ListParams) (*models.PaginatedResponse, error) {
	ids, err := s.access.VisibleClassIDs(ctx, p)
	if err != nil {
		return nil, err
	}

	filters := repositories.ClassFilters{IDs: ids, GradeLevel: gradeLevel, Search: params.Search}
	filters.Limit, filters.Offset = listWindow(&params)

	classes, total, err := s.repo.Class().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return models.NewPaginatedResponse(classes, total, params), nil
}

// ===== SUBJECTS =====

func (s *classService) CreateSubject(ctx context.Context, p models.Principal, req *models.SubjectCreateRequest) (*models.Subject, error) {
	if err := requireAdmin(p, "subject", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Description: req.Description,
	}
	if err := s.repo.Subject().Create(ctx, subject); err != nil {
		return nil, conflictOr(err, "subject", fmt.Sprintf("subject code %q already exists", subject.Code), "create subject")
	}
	s.logger.Info("Subject created", "subject_id", subject.ID, "code", subject.Code)
	s.invalidateStats(ctx)
	return subject, nil
}

func (s *classService) UpdateSubject(ctx context.Context, p models.Principal, id uint, req *models.SubjectUpdateRequest) (*models.Subject, error) {
	if err := requireAdmin(p, "subject", "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	subject, err := s.GetSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		subject.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		subject.Description = req.Description
	}

	if err := s.repo.Subject().Update(ctx, subject); err != nil {
		return nil, conflictOr(err, "subject", fmt.Sprintf("subject code %q already exists", subject.Code), "update subject")
	}
	return subject, nil
}

func (s *classService) DeleteSubject(ctx context.Context, p models.Principal, id uint) error {
	if err := requireAdmin(p, "subject", "delete"); err != nil {
		return err
	}
	if err := s.repo.Subject().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrSubjectNotFound, "delete subject")
	}
	s.logger.Info("Subject deleted", "subject_id", id)
	s.invalidateStats(ctx)
	return nil
}

func (s *classService) GetSubject(ctx context.Context, id uint) (*models.Subject, error) {
	subject, err := s.repo.Subject().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSubjectNotFound, "get subject")
	}
	return subject, nil
}

func (s *classService) ListSubjects(ctx context.Context, params models.ListParams) (*models.PaginatedResponse, error) {
	filters := repositories.SubjectFilters{Search: params.Search}
	filters.Limit, filters.Offset = listWindow(&params)

	subjects, total, err := s.repo.Subject().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return models.NewPaginatedResponse(subjects, total, params), nil
}

// ===== CLASS MEMBERSHIP =====

// AddSubjectToClass creates the class subject and enrols every student
// currently in the class, all in one transaction.
func (s *classService) AddSubjectToClass(ctx context.Context, p models.Principal, classID, subjectID uint) (*models.ClassSubject, error) {
	if err := requireAdmin(p, "class subject", "create"); err != nil {
		return nil, err
	}
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}
	if _, err := s.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	var (
		cs       *models.ClassSubject
		enrolled int
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.ClassSubject().Get(ctx, classID, subjectID)
		switch {
		case err == nil && existing.IsActive:
			return NewConflictError("class subject", "subject is already taught in this class")
		case err == nil:
			existing.IsActive = true
			cs = existing
			return tx.ClassSubject().Update(ctx, existing)
		case !repositories.IsNotFoundError(err):
			return fmt.Errorf("failed to get class subject: %w", err)
		}

		cs = &models.ClassSubject{ClassID: classID, SubjectID: subjectID, IsActive: true}
		if err := tx.ClassSubject().Create(ctx, cs); err != nil {
			return conflictOr(err, "class subject", "subject is already taught in this class", "create class subject")
		}

		students, err := tx.Student().ListByClass(ctx, classID)
		if err != nil {
			return fmt.Errorf("failed to list class students: %w", err)
		}
		now := s.now()
		enrollments := make([]*models.StudentSubjectEnrollment, 0, len(students))
		for _, student := range students {
			enrollments = append(enrollments, &models.StudentSubjectEnrollment{
				StudentID:  student.ID,
				SubjectID:  subjectID,
				ClassID:    classID,
				IsActive:   true,
				EnrolledAt: now,
			})
		}
		if err := tx.Enrollment().CreateBatch(ctx, enrollments); err != nil {
			return fmt.Errorf("failed to enrol students: %w", err)
		}
		enrolled = len(enrollments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subject added to class", "class_id", classID, "subject_id", subjectID, "enrolled", enrolled)
	return cs, nil
}

func (s *classService) RemoveSubjectFromClass(ctx context.Context, p models.Principal, classID, subjectID uint) error {
	if err := requireAdmin(p, "class subject", "remove"); err != nil {
		return err
	}

	cs, err := s.repo.ClassSubject().Get(ctx, classID, subjectID)
	if err != nil {
		return notFoundOr(err, NewNotFoundError("class subject", subjectID), "get class subject")
	}
	if !cs.IsActive {
		return nil
	}
	cs.IsActive = false
	if err := s.repo.ClassSubject().Update(ctx, cs); err != nil {
		return fmt.Errorf("failed to deactivate class subject: %w", err)
	}
	s.logger.Info("Subject removed from class", "class_id", classID, "subject_id", subjectID)
	return nil
}

func (s *classService) AssignTeacher(ctx context.Context, p models.Principal, classID uint, req *models.AssignTeacherRequest) (*models.ClassTeacherSubject, error) {
	if err := requireAdmin(p, "teacher assignment", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	teacher, err := s.repo.User().GetByID(ctx, req.TeacherID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "get teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, NewValidationError("teacher_id", "user is not a teacher", req.TeacherID)
	}
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}
	cs, err := s.repo.ClassSubject().Get(ctx, classID, req.SubjectID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get class subject: %w", err)
	}
	if err != nil || !cs.IsActive {
		return nil, NewValidationError("subject_id", "subject is not taught in this class", req.SubjectID)
	}

	existing, err := s.repo.TeacherAssignment().Get(ctx, classID, req.TeacherID, req.SubjectID)
	if err == nil {
		if existing.IsActive {
			return nil, NewConflictError("teacher assignment", "teacher already teaches this subject in this class")
		}
		existing.IsActive = true
		if err := s.repo.TeacherAssignment().Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate teacher assignment: %w", err)
		}
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get teacher assignment: %w", err)
	}

	cts := &models.ClassTeacherSubject{
		ClassID:   classID,
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
		IsActive:  true,
	}
	if err := s.repo.TeacherAssignment().Create(ctx, cts); err != nil {
		return nil, conflictOr(err, "teacher assignment", "teacher already teaches this subject in this class", "assign teacher")
	}
	s.logger.Info("Teacher assigned", "class_id", classID, "teacher_id", req.TeacherID, "subject_id", req.SubjectID)
	return cts, nil
}

func (s *classService) UnassignTeacher(ctx context.Context, p models.Principal, classID, teacherID, subjectID uint) error {
	if err := requireAdmin(p, "teacher assignment", "remove"); err != nil {
		return err
	}

	cts, err := s.repo.TeacherAssignment().Get(ctx, classID, teacherID, subjectID)
	if err != nil {
		return notFoundOr(err, NewNotFoundError("teacher assignment", teacherID), "get teacher assignment")
	}
	if !cts.IsActive {
		return nil
	}
	cts.IsActive = false
	if err := s.repo.TeacherAssignment().Update(ctx, cts); err != nil {
		return fmt.Errorf("failed to deactivate teacher assignment: %w", err)
	}
	s.logger.Info("Teacher unassigned", "class_id", classID, "teacher_id", teacherID, "subject_id", subjectID)
	return nil
}

// BulkAssignStudents places each student independently.
func (s *classService) BulkAssignStudents(ctx context.Context, p models.Principal, classID uint, req *models.BulkAssignStudentsRequest) (*models.BulkOperationResult, error) {
	if err := requireAdmin(p, "class", "assign students"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}

	result := &models.BulkOperationResult{}
	for _, studentID := range req.StudentIDs {
		student, err := s.repo.Student().GetByID(ctx, studentID)
		if err != nil {
			result.Fail(studentID, notFoundOr(err, ErrStudentNotFound, "get student"))
			continue
		}
		id := classID
		student.ClassID = &id
		student.Class = nil
		if err := s.repo.Student().Update(ctx, student); err != nil {
			result.Fail(studentID, fmt.Errorf("failed to update student: %w", err))
			continue
		}
		result.Succeed()
	}

	s.logger.Info("Students assigned to class", "class_id", classID,
		"successful", result.Successful, "failed", result.Failed)
	return result, nil
}

// ===== HELPERS =====

func (s *classService) getClass(ctx context.Context, id uint) (*models.Class, error) {
	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrClassNotFound, "get class")
	}
	return class, nil
}

func (s *classService) checkClassRead(ctx context.Context, p models.Principal, classID uint) error {
	if !p.IsStudent() {
		return s.access.CheckClassAccess(ctx, p, classID)
	}
	ids, err := s.access.VisibleClassIDs(ctx, p)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == classID {
			return nil
		}
	}
	return NewPermissionError(p.UserID, classID, "class", "view", "students may only view their own class")
}

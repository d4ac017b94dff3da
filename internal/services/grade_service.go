package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

const defaultMaxScore = 100

type gradeService struct {
	serviceBase
	access AccessPolicy
}

func NewGradeService(deps Dependencies, access AccessPolicy) GradeService {
	return &gradeService{serviceBase: newServiceBase(deps), access: access}
}

func (s *gradeService) Create(ctx context.Context, p models.Principal, req *models.GradeCreateRequest) (*models.Grade, error) {
	if err := requireStaff(p, "grade", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.access.CheckClassSubjectAccess(ctx, p, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	student, err := s.studentInClass(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID:    student.ID,
		SubjectID:    req.SubjectID,
		ClassID:      req.ClassID,
		GradeType:    req.GradeType,
		Score:        req.Score,
		MaxScore:     req.MaxScore,
		Description:  req.Description,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		CreatedBy:    p.UserID,
	}
	if grade.MaxScore == 0 {
		grade.MaxScore = defaultMaxScore
	}
	if err := checkGradeScore(grade.Score, grade.MaxScore); err != nil {
		return nil, err
	}

	if err := s.repo.Grade().Create(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}

	var out outbox
	s.recordGradeActivity(&out, p, student, grade)
	out.afterCommit(func(context.Context) { s.metrics.IncGradeRecorded(1) })
	s.flush(ctx, &out)

	s.logger.Info("Grade recorded", "grade_id", grade.ID, "student_id", grade.StudentID, "subject_id", grade.SubjectID)
	return grade, nil
}

func (s *gradeService) Update(ctx context.Context, p models.Principal, id uint, req *models.GradeUpdateRequest) (*models.Grade, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	grade, err := s.getGrade(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if req.Score != nil {
		grade.Score = *req.Score
	}
	if req.MaxScore != nil {
		grade.MaxScore = *req.MaxScore
	}
	if req.Description != nil {
		grade.Description = req.Description
	}
	if err := checkGradeScore(grade.Score, grade.MaxScore); err != nil {
		return nil, err
	}

	grade.Student = nil
	grade.Subject = nil
	if err := s.repo.Grade().Update(ctx, grade); err != nil {
		return nil, notFoundOr(err, ErrGradeNotFound, "update grade")
	}
	s.logger.Info("Grade updated", "grade_id", id, "updated_by", p.UserID)
	return grade, nil
}

func (s *gradeService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if _, err := s.getGrade(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Grade().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrGradeNotFound, "delete grade")
	}
	s.logger.Info("Grade deleted", "grade_id", id, "deleted_by", p.UserID)
	return nil
}

// List requires teachers to name a class they teach and narrows them to the
// subjects they teach there. Students only see their own grades.
func (s *gradeService) List(ctx context.Context, p models.Principal, filters repositories.GradeFilters, params models.ListParams) (*models.PaginatedResponse, error) {
	switch {
	case p.IsStudent():
		student, err := s.access.StudentForPrincipal(ctx, p)
		if err != nil {
			return nil, err
		}
		filters.StudentID = &student.ID
	case p.IsTeacher():
		if filters.ClassID == nil {
			return nil, NewValidationError("class_id", "is required", nil)
		}
		if filters.SubjectID != nil {
			if err := s.access.CheckClassSubjectAccess(ctx, p, *filters.ClassID, *filters.SubjectID); err != nil {
				return nil, err
			}
			break
		}
		subjectIDs, err := s.access.SubjectScope(ctx, p, *filters.ClassID)
		if err != nil {
			return nil, err
		}
		filters.SubjectIDs = subjectIDs
	}

	filters.Limit, filters.Offset = listWindow(&params)
	grades, total, err := s.repo.Grade().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return models.NewPaginatedResponse(grades, total, params), nil
}

// BulkCreate records one grade per entry; each entry succeeds or fails on its own.
func (s *gradeService) BulkCreate(ctx context.Context, p models.Principal, req *models.BulkGradeCreateRequest) (*models.BulkOperationResult, error) {
	if err := requireStaff(p, "grade", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.access.CheckClassSubjectAccess(ctx, p, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}

	maxScore := req.MaxScore
	if maxScore == 0 {
		maxScore = defaultMaxScore
	}

	result := &models.BulkOperationResult{}
	var out outbox
	for _, entry := range req.Entries {
		student, err := s.studentInClass(ctx, entry.StudentID, req.ClassID)
		if err != nil {
			result.Fail(entry.StudentID, err)
			continue
		}
		if err := checkGradeScore(entry.Score, maxScore); err != nil {
			result.Fail(entry.StudentID, err)
			continue
		}

		grade := &models.Grade{
			StudentID:    student.ID,
			SubjectID:    req.SubjectID,
			ClassID:      req.ClassID,
			GradeType:    req.GradeType,
			Score:        entry.Score,
			MaxScore:     maxScore,
			Description:  entry.Description,
			Semester:     req.Semester,
			AcademicYear: req.AcademicYear,
			CreatedBy:    p.UserID,
		}
		if err := s.repo.Grade().Create(ctx, grade); err != nil {
			result.Fail(entry.StudentID, fmt.Errorf("failed to create grade: %w", err))
			continue
		}
		s.recordGradeActivity(&out, p, student, grade)
		result.Succeed()
	}

	recorded := result.Successful
	out.afterCommit(func(context.Context) { s.metrics.IncGradeRecorded(recorded) })
	s.flush(ctx, &out)

	s.logger.Info("Bulk grades recorded", "class_id", req.ClassID, "subject_id", req.SubjectID,
		"successful", result.Successful, "failed", result.Failed)
	return result, nil
}

func (s *gradeService) StudentRecap(ctx context.Context, p models.Principal, studentID uint) (*models.StudentGradeRecap, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}

	subjects, err := s.repo.Grade().AveragesBySubject(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to average grades: %w", err)
	}
	if p.IsTeacher() {
		subjectIDs, err := s.access.SubjectScope(ctx, p, derefUint(student.ClassID))
		if err != nil {
			return nil, err
		}
		subjects = slices.DeleteFunc(subjects, func(r models.SubjectGradeRecap) bool {
			return !slices.Contains(subjectIDs, r.SubjectID)
		})
	}
	if subjects == nil {
		subjects = []models.SubjectGradeRecap{}
	}

	recap := &models.StudentGradeRecap{StudentID: student.ID, FullName: student.FullName, Subjects: subjects}
	if len(subjects) > 0 {
		var sum float64
		for _, subject := range subjects {
			sum += subject.Average
		}
		recap.Overall = sum / float64(len(subjects))
	}
	return recap, nil
}

// ===== HELPERS =====

func (s *gradeService) getGrade(ctx context.Context, p models.Principal, id uint) (*models.Grade, error) {
	grade, err := s.repo.Grade().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrGradeNotFound, "get grade")
	}
	if err := requireStaff(p, "grade", "modify"); err != nil {
		return nil, err
	}
	if err := s.access.CheckClassSubjectAccess(ctx, p, grade.ClassID, grade.SubjectID); err != nil {
		return nil, err
	}
	return grade, nil
}

func (s *gradeService) studentInClass(ctx context.Context, studentID, classID uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if student.ClassID == nil || *student.ClassID != classID {
		return nil, NewValidationError("student_id", "student is not in this class", studentID)
	}
	return student, nil
}

func (s *gradeService) recordGradeActivity(out *outbox, p models.Principal, student *models.Student, grade *models.Grade) {
	sid := student.ID
	out.activity(&models.Activity{
		UserID:      p.UserID,
		StudentID:   &sid,
		Type:        models.ActivityGradeRecorded,
		Title:       fmt.Sprintf("Nilai %s untuk %s", grade.GradeType, student.FullName),
		Description: fmt.Sprintf("%.1f/%.0f", grade.Score, grade.MaxScore),
		Metadata:    toJSON(map[string]interface{}{"grade_id": grade.ID, "subject_id": grade.SubjectID}),
	})
}

func checkGradeScore(score, maxScore float64) error {
	if score < 0 || score > maxScore {
		return NewValidationError("score", fmt.Sprintf("must be between 0 and %.0f", maxScore), score)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type studentService struct {
	serviceBase
	access AccessPolicy
	xp     XPService
}

func NewStudentService(deps Dependencies, access AccessPolicy, xp XPService) StudentService {
	return &studentService{serviceBase: newServiceBase(deps), access: access, xp: xp}
}

// Create stores the student together with an empty XP row.
func (s *studentService) Create(ctx context.Context, p models.Principal, req *models.StudentCreateRequest) (*models.Student, error) {
	if err := requireAdmin(p, "student", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentID: strings.TrimSpace(req.StudentID),
		FullName:  strings.TrimSpace(req.FullName),
		Gender:    req.Gender,
		ClassID:   req.ClassID,
		UserID:    req.UserID,
		Status:    models.StudentActive,
	}
	if err := s.checkPlacement(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info("Creating student", "nisn", student.StudentID, "class_id", student.ClassID)

	if err := createStudentWithXP(ctx, s.repo, student); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return student, nil
}

// createStudentWithXP inserts the student and its zeroed XP row in one transaction.
func createStudentWithXP(ctx context.Context, repo repositories.Repository, student *models.Student) error {
	return repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Student().Create(ctx, student); err != nil {
			return conflictOr(err, "student", fmt.Sprintf("NISN %s is already registered", student.StudentID), "create student")
		}
		if _, err := tx.StudentXP().Apply(ctx, student.ID, models.XPOperation{Kind: models.XPCreate, Amount: 0}); err != nil {
			return fmt.Errorf("failed to create student xp: %w", err)
		}
		return nil
	})
}

func (s *studentService) Get(ctx context.Context, p models.Principal, id uint) (*models.Student, error) {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *studentService) Update(ctx context.Context, p models.Principal, id uint, req *models.StudentUpdateRequest) (*models.Student, error) {
	if err := requireAdmin(p, "student", "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, NewValidationError("full_name", "must not be blank", *req.FullName)
		}
		student.FullName = name
	}
	if req.Gender != nil {
		student.Gender = req.Gender
	}
	if req.Status != nil {
		student.Status = *req.Status
	}
	if req.ClassID != nil {
		student.ClassID = req.ClassID
		student.Class = nil
		if err := s.checkPlacement(ctx, student); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "update student")
	}
	s.logger.Info("Student updated", "student_id", id)
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if err := requireAdmin(p, "student", "delete"); err != nil {
		return err
	}
	if err := s.repo.Student().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrStudentNotFound, "delete student")
	}
	s.logger.Info("Student deleted", "student_id", id)
	s.invalidateStats(ctx)
	s.invalidateLeaderboard(ctx)
	return nil
}

// List restricts teachers to the classes they teach. Students cannot list.
func (s *studentService) List(ctx context.Context, p models.Principal, filters repositories.StudentFilters, params models.ListParams) (*models.PaginatedResponse, error) {
	if err := requireStaff(p, "student", "list"); err != nil {
		return nil, err
	}
	ids, err := s.access.VisibleClassIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	filters.ClassIDs = ids
	if filters.Search == "" {
		filters.Search = params.Search
	}
	filters.Limit, filters.Offset = listWindow(&params)

	students, total, err := s.repo.Student().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return models.NewPaginatedResponse(students, total, params), nil
}

func (s *studentService) Me(ctx context.Context, p models.Principal) (*models.StudentProgress, error) {
	student, err := s.access.StudentForPrincipal(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.xp.GetStudentProgress(ctx, p, student.ID)
}

// ===== HELPERS =====

func (s *studentService) getStudent(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	return student, nil
}

func (s *studentService) checkPlacement(ctx context.Context, student *models.Student) error {
	if student.ClassID != nil {
		if _, err := s.repo.Class().GetByID(ctx, *student.ClassID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewValidationError("class_id", "class does not exist", *student.ClassID)
			}
			return fmt.Errorf("failed to get class: %w", err)
		}
	}
	if student.UserID != nil {
		user, err := s.repo.User().GetByID(ctx, *student.UserID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewValidationError("user_id", "user does not exist", *student.UserID)
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user.Role != models.RoleStudent {
			return NewValidationError("user_id", "user is not a student account", *student.UserID)
		}
	}
	return nil
}

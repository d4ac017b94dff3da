package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// AssignmentOwnership decides who may mutate or grade an assignment.
type AssignmentOwnership int

const (
	// OwnerOnly allows the owning teacher and nobody else, ADMIN included.
	OwnerOnly AssignmentOwnership = iota
	// OwnerOrAdmin additionally lets ADMIN act on any assignment.
	OwnerOrAdmin
)

// ParseAssignmentOwnership accepts "owner_only" and "owner_or_admin"; anything
// else yields OwnerOnly.
func ParseAssignmentOwnership(s string) AssignmentOwnership {
	if strings.EqualFold(strings.TrimSpace(s), "owner_or_admin") {
		return OwnerOrAdmin
	}
	return OwnerOnly
}

func (o AssignmentOwnership) String() string {
	if o == OwnerOrAdmin {
		return "owner_or_admin"
	}
	return "owner_only"
}

func (o AssignmentOwnership) Allows(p models.Principal, teacherID uint) bool {
	if p.IsStudent() {
		return false
	}
	if p.UserID == teacherID {
		return true
	}
	return o == OwnerOrAdmin && p.IsAdmin()
}

type accessPolicy struct {
	repo      repositories.Repository
	logger    *slog.Logger
	ownership AssignmentOwnership
}

func NewAccessPolicy(repo repositories.Repository, logger *slog.Logger, ownership AssignmentOwnership) AccessPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &accessPolicy{repo: repo, logger: logger, ownership: ownership}
}

func (a *accessPolicy) Ownership() AssignmentOwnership {
	return a.ownership
}

func (a *accessPolicy) CheckClassAccess(ctx context.Context, p models.Principal, classID uint) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		ok, err := a.repo.TeacherAssignment().HasClassAccess(ctx, p.UserID, classID)
		if err != nil {
			return fmt.Errorf("failed to check class access: %w", err)
		}
		if !ok {
			return NewPermissionError(p.UserID, classID, "class", "access", "not assigned to this class")
		}
		return nil
	default:
		return NewPermissionError(p.UserID, classID, "class", "access", "role has no class scope")
	}
}

func (a *accessPolicy) CheckClassSubjectAccess(ctx context.Context, p models.Principal, classID, subjectID uint) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		ok, err := a.repo.TeacherAssignment().HasClassSubjectAccess(ctx, p.UserID, classID, subjectID)
		if err != nil {
			return fmt.Errorf("failed to check class subject access: %w", err)
		}
		if !ok {
			return NewPermissionError(p.UserID, classID, "class subject", "access",
				fmt.Sprintf("not assigned to subject %d in this class", subjectID))
		}
		return nil
	default:
		return NewPermissionError(p.UserID, classID, "class subject", "access", "role has no class scope")
	}
}

func (a *accessPolicy) CheckStudentResource(ctx context.Context, p models.Principal, studentID, classID uint, subjectID *uint) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		student, err := a.StudentForPrincipal(ctx, p)
		if err != nil {
			if IsNotFound(err) {
				return NewPermissionError(p.UserID, studentID, "student", "access", "user is not linked to a student")
			}
			return err
		}
		if student.ID != studentID {
			return NewPermissionError(p.UserID, studentID, "student", "access", "students may only access their own records")
		}
		return nil
	case models.RoleTeacher:
		if subjectID != nil {
			return a.CheckClassSubjectAccess(ctx, p, classID, *subjectID)
		}
		return a.CheckClassAccess(ctx, p, classID)
	default:
		return NewPermissionError(p.UserID, studentID, "student", "access", "unknown role")
	}
}

// VisibleClassIDs returns nil for unrestricted access and a non-nil, possibly
// empty, slice otherwise.
func (a *accessPolicy) VisibleClassIDs(ctx context.Context, p models.Principal) ([]uint, error) {
	switch p.Role {
	case models.RoleAdmin:
		return nil, nil
	case models.RoleTeacher:
		ids, err := a.repo.TeacherAssignment().ListClassIDsByTeacher(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to list teacher classes: %w", err)
		}
		if ids == nil {
			ids = []uint{}
		}
		return ids, nil
	case models.RoleStudent:
		student, err := a.StudentForPrincipal(ctx, p)
		if err != nil {
			if IsNotFound(err) {
				return []uint{}, nil
			}
			return nil, err
		}
		if student.ClassID == nil {
			return []uint{}, nil
		}
		return []uint{*student.ClassID}, nil
	default:
		return []uint{}, nil
	}
}

// SubjectScope returns the subjects a teacher may read in a class they teach,
// or nil when the principal is not limited by subject.
func (a *accessPolicy) SubjectScope(ctx context.Context, p models.Principal, classID uint) ([]uint, error) {
	if !p.IsTeacher() {
		return nil, nil
	}
	if err := a.CheckClassAccess(ctx, p, classID); err != nil {
		return nil, err
	}
	ids, err := a.repo.TeacherAssignment().ListSubjectIDs(ctx, p.UserID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher subjects: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

func (a *accessPolicy) CheckAssignmentOwnership(p models.Principal, assignment *models.Assignment, action string) error {
	if a.ownership.Allows(p, assignment.TeacherID) {
		return nil
	}
	reason := "only the owning teacher may " + action + " this assignment"
	if a.ownership == OwnerOrAdmin {
		reason = "only the owning teacher or an admin may " + action + " this assignment"
	}
	return NewPermissionError(p.UserID, assignment.ID, "assignment", action, reason)
}

func (a *accessPolicy) StudentForPrincipal(ctx context.Context, p models.Principal) (*models.Student, error) {
	if !p.IsStudent() {
		return nil, NewPermissionError(p.UserID, 0, "student", "resolve", "principal is not a student")
	}
	student, err := a.repo.Student().GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student for user")
	}
	return student, nil
}

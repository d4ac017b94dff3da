package services

import (
	"context"
	"fmt"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type attendanceService struct {
	serviceBase
	access AccessPolicy
}

func NewAttendanceService(deps Dependencies, access AccessPolicy) AttendanceService {
	return &attendanceService{serviceBase: newServiceBase(deps), access: access}
}

// Record upserts the attendance for (student, class, subject, day) and moves
// the attendance streak: PRESENT extends it, ABSENT resets it.
func (s *attendanceService) Record(ctx context.Context, p models.Principal, req *models.AttendanceRecordRequest) (*models.Attendance, error) {
	if err := requireStaff(p, "attendance", "record"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, p, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	if err := s.studentInClass(ctx, s.repo, req.StudentID, req.ClassID); err != nil {
		return nil, err
	}

	attendance := &models.Attendance{
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		SubjectID:  req.SubjectID,
		Date:       attendanceDay(req.Date),
		Status:     req.Status,
		Reason:     req.Reason,
		Notes:      req.Notes,
		RecordedBy: p.UserID,
	}
	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return s.upsert(ctx, tx, attendance)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Attendance recorded", "student_id", attendance.StudentID, "class_id", attendance.ClassID,
		"date", attendance.Date.Format(time.DateOnly), "status", attendance.Status)
	return attendance, nil
}

// BulkRecord records one class roll call; each entry is its own transaction.
func (s *attendanceService) BulkRecord(ctx context.Context, p models.Principal, req *models.BulkAttendanceRequest) (*models.BulkOperationResult, error) {
	if err := requireStaff(p, "attendance", "record"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, p, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}

	day := attendanceDay(req.Date)
	result := &models.BulkOperationResult{}
	for _, entry := range req.Entries {
		attendance := &models.Attendance{
			StudentID:  entry.StudentID,
			ClassID:    req.ClassID,
			SubjectID:  req.SubjectID,
			Date:       day,
			Status:     entry.Status,
			Reason:     entry.Reason,
			RecordedBy: p.UserID,
		}
		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := s.studentInClass(ctx, tx, entry.StudentID, req.ClassID); err != nil {
				return err
			}
			return s.upsert(ctx, tx, attendance)
		})
		if err != nil {
			result.Fail(entry.StudentID, err)
			continue
		}
		result.Succeed()
	}

	s.logger.Info("Bulk attendance recorded", "class_id", req.ClassID, "date", day.Format(time.DateOnly),
		"successful", result.Successful, "failed", result.Failed)
	return result, nil
}

func (s *attendanceService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if err := requireStaff(p, "attendance", "delete"); err != nil {
		return err
	}
	attendance, err := s.repo.Attendance().GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrAttendanceNotFound, "get attendance")
	}
	if err := s.checkScope(ctx, p, attendance.ClassID, attendance.SubjectID); err != nil {
		return err
	}
	if err := s.repo.Attendance().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrAttendanceNotFound, "delete attendance")
	}
	s.logger.Info("Attendance deleted", "attendance_id", id, "deleted_by", p.UserID)
	return nil
}

func (s *attendanceService) List(ctx context.Context, p models.Principal, filters repositories.AttendanceFilters, params models.ListParams) (*models.PaginatedResponse, error) {
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
			if err := s.checkScope(ctx, p, *filters.ClassID, filters.SubjectID); err != nil {
				return nil, err
			}
			break
		}
		// daily records stay visible, subject records only for taught subjects
		subjectIDs, err := s.access.SubjectScope(ctx, p, *filters.ClassID)
		if err != nil {
			return nil, err
		}
		filters.SubjectIDs = subjectIDs
	}

	filters.Limit, filters.Offset = listWindow(&params)
	records, total, err := s.repo.Attendance().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return models.NewPaginatedResponse(records, total, params), nil
}

// Summary counts statuses in the window. Rate treats LATE as attended.
func (s *attendanceService) Summary(ctx context.Context, p models.Principal, studentID uint, query AttendanceSummaryQuery) (*models.AttendanceSummary, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}

	counts, err := s.repo.Attendance().CountByStatus(ctx, studentID, query.From, query.To)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}

	summary := &models.AttendanceSummary{
		StudentID:  studentID,
		Present:    counts[models.AttendancePresent],
		Absent:     counts[models.AttendanceAbsent],
		Sick:       counts[models.AttendanceSick],
		Permission: counts[models.AttendancePermission],
		Late:       counts[models.AttendanceLate],
	}
	summary.Total = summary.Present + summary.Absent + summary.Sick + summary.Permission + summary.Late
	summary.Rate = percentage(summary.Present+summary.Late, summary.Total)
	return summary, nil
}

// ===== HELPERS =====

func (s *attendanceService) upsert(ctx context.Context, tx repositories.Repository, attendance *models.Attendance) error {
	if err := tx.Attendance().Upsert(ctx, attendance); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}

	var err error
	switch attendance.Status {
	case models.AttendancePresent:
		err = tx.StudentXP().BumpStreak(ctx, attendance.StudentID, repositories.AttendanceStreak, false)
	case models.AttendanceAbsent:
		err = tx.StudentXP().BumpStreak(ctx, attendance.StudentID, repositories.AttendanceStreak, true)
	}
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to update attendance streak: %w", err)
	}
	return nil
}

func (s *attendanceService) checkScope(ctx context.Context, p models.Principal, classID uint, subjectID *uint) error {
	if subjectID != nil {
		return s.access.CheckClassSubjectAccess(ctx, p, classID, *subjectID)
	}
	return s.access.CheckClassAccess(ctx, p, classID)
}

func (s *attendanceService) studentInClass(ctx context.Context, repo repositories.Repository, studentID, classID uint) error {
	student, err := repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if student.ClassID == nil || *student.ClassID != classID {
		return NewValidationError("student_id", "student is not in this class", studentID)
	}
	return nil
}

// attendanceDay keeps the calendar day of t as a UTC midnight.
func attendanceDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

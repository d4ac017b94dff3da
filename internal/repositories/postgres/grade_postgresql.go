package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type gradePostgreSQL struct {
	db *gorm.DB
}

func NewGradePostgreSQL(db *gorm.DB) repositories.GradeRepository {
	return &gradePostgreSQL{db: db}
}

func (r *gradePostgreSQL) Create(ctx context.Context, grade *models.Grade) error {
	if err := r.db.WithContext(ctx).Omit("Student", "Subject").Create(grade).Error; err != nil {
		return handleDBError(err, "create grade")
	}
	return nil
}

func (r *gradePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).First(&grade, id).Error; err != nil {
		return nil, handleDBError(err, "get grade by id")
	}
	return &grade, nil
}

func (r *gradePostgreSQL) Update(ctx context.Context, grade *models.Grade) error {
	if err := r.db.WithContext(ctx).Omit("Student", "Subject").Save(grade).Error; err != nil {
		return handleDBError(err, "update grade")
	}
	return nil
}

func (r *gradePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Grade{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete grade")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete grade")
	}
	return nil
}

func (r *gradePostgreSQL) List(ctx context.Context, filters repositories.GradeFilters) ([]*models.Grade, int64, error) {
	var grades []*models.Grade
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Grade{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.SubjectIDs != nil {
		query = query.Where("subject_id IN ?", filters.SubjectIDs)
	}
	if filters.GradeType != nil {
		query = query.Where("grade_type = ?", *filters.GradeType)
	}
	if filters.Semester != nil {
		query = query.Where("semester = ?", *filters.Semester)
	}
	if filters.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filters.AcademicYear)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count grades")
	}

	query = applyPagination(query.Preload("Student").Preload("Subject").Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&grades).Error; err != nil {
		return nil, 0, handleDBError(err, "list grades")
	}
	return grades, total, nil
}

func (r *gradePostgreSQL) AveragesBySubject(ctx context.Context, studentID uint) ([]models.SubjectGradeRecap, error) {
	var recaps []models.SubjectGradeRecap
	if err := r.db.WithContext(ctx).
		Table("grades g").
		Select("g.subject_id, s.name AS subject_name, COUNT(*) AS grade_count, AVG(g.score / NULLIF(g.max_score, 0) * 100) AS average").
		Joins("JOIN subjects s ON s.id = g.subject_id").
		Where("g.student_id = ?", studentID).
		Group("g.subject_id, s.name").
		Order("s.name ASC").
		Scan(&recaps).Error; err != nil {
		return nil, handleDBError(err, "average grades by subject")
	}
	return recaps, nil
}

// ===== ATTENDANCE =====

type attendancePostgreSQL struct {
	db *gorm.DB
}

func NewAttendancePostgreSQL(db *gorm.DB) repositories.AttendanceRepository {
	return &attendancePostgreSQL{db: db}
}

// Upsert looks the row up explicitly because a NULL subject_id never
// collides under a unique index.
func (r *attendancePostgreSQL) Upsert(ctx context.Context, attendance *models.Attendance) error {
	db := r.db.WithContext(ctx)

	query := db.Where("student_id = ? AND class_id = ? AND date = ?",
		attendance.StudentID, attendance.ClassID, attendance.Date)
	if attendance.SubjectID != nil {
		query = query.Where("subject_id = ?", *attendance.SubjectID)
	} else {
		query = query.Where("subject_id IS NULL")
	}

	var existing models.Attendance
	err := query.First(&existing).Error
	switch {
	case err == nil:
		attendance.ID = existing.ID
		attendance.CreatedAt = existing.CreatedAt
		if err := db.Omit("Student").Save(attendance).Error; err != nil {
			return handleDBError(err, "update attendance")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Omit("Student").Create(attendance).Error; err != nil {
			return handleDBError(err, "create attendance")
		}
	default:
		return handleDBError(err, "find attendance")
	}
	return nil
}

func (r *attendancePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := r.db.WithContext(ctx).First(&attendance, id).Error; err != nil {
		return nil, handleDBError(err, "get attendance by id")
	}
	return &attendance, nil
}

func (r *attendancePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Attendance{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete attendance")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete attendance")
	}
	return nil
}

func (r *attendancePostgreSQL) scoped(ctx context.Context, filters repositories.AttendanceFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Attendance{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.SubjectIDs != nil {
		query = query.Where("(subject_id IS NULL OR subject_id IN ?)", filters.SubjectIDs)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("date <= ?", *filters.DateTo)
	}
	return query
}

func (r *attendancePostgreSQL) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.Attendance, int64, error) {
	var rows []*models.Attendance
	var total int64

	if err := r.scoped(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count attendance")
	}

	query := applyPagination(r.scoped(ctx, filters).Preload("Student").Order("date DESC, student_id ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, handleDBError(err, "list attendance")
	}
	return rows, total, nil
}

func (r *attendancePostgreSQL) CountByStatus(ctx context.Context, studentID uint, from, to *time.Time) (repositories.AttendanceCounts, error) {
	var rows []struct {
		Status models.AttendanceStatus
		Count  int64
	}

	filters := repositories.AttendanceFilters{StudentID: &studentID, DateFrom: from, DateTo: to}
	if err := r.scoped(ctx, filters).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "count attendance by status")
	}

	counts := repositories.AttendanceCounts{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

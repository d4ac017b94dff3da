package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// ===== CLASSES =====

type classPostgreSQL struct {
	db *gorm.DB
}

func NewClassPostgreSQL(db *gorm.DB) repositories.ClassRepository {
	return &classPostgreSQL{db: db}
}

// classWithCount selects classes together with their live student count
func (r *classPostgreSQL) classWithCount(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Class{}).
		Select("classes.*, (SELECT COUNT(*) FROM students s WHERE s.class_id = classes.id AND s.deleted_at IS NULL) AS student_count")
}

type classRow struct {
	models.Class
	StudentCount int64
}

func (r *classPostgreSQL) Create(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Omit("Subjects", "Teachers").Create(class).Error; err != nil {
		return handleDBError(err, "create class")
	}
	return nil
}

func (r *classPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	var row classRow
	if err := r.classWithCount(ctx).Where("classes.id = ?", id).Take(&row).Error; err != nil {
		return nil, handleDBError(err, "get class by id")
	}

	class := row.Class
	class.StudentCount = row.StudentCount
	return &class, nil
}

func (r *classPostgreSQL) GetByName(ctx context.Context, name string) (*models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&class).Error; err != nil {
		return nil, handleDBError(err, "get class by name")
	}
	return &class, nil
}

func (r *classPostgreSQL) Update(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Omit("Subjects", "Teachers").Save(class).Error; err != nil {
		return handleDBError(err, "update class")
	}
	return nil
}

func (r *classPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Class{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete class")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete class")
	}
	return nil
}

func (r *classPostgreSQL) List(ctx context.Context, filters repositories.ClassFilters) ([]*models.Class, int64, error) {
	var total int64

	scope := func(q *gorm.DB) *gorm.DB {
		if filters.IDs != nil {
			q = q.Where("classes.id IN ?", filters.IDs)
		}
		if filters.GradeLevel != nil {
			q = q.Where("classes.grade_level = ?", *filters.GradeLevel)
		}
		if filters.Search != "" {
			q = q.Where("classes.name ILIKE ?", likePattern(filters.Search))
		}
		return q
	}

	if err := r.db.WithContext(ctx).Model(&models.Class{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count classes")
	}

	var rows []classRow
	query := applyPagination(r.classWithCount(ctx).Scopes(scope).Order("classes.grade_level ASC, classes.name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, handleDBError(err, "list classes")
	}

	classes := make([]*models.Class, 0, len(rows))
	for i := range rows {
		class := rows[i].Class
		class.StudentCount = rows[i].StudentCount
		classes = append(classes, &class)
	}
	return classes, total, nil
}

// ===== SUBJECTS =====

type subjectPostgreSQL struct {
	db *gorm.DB
}

func NewSubjectPostgreSQL(db *gorm.DB) repositories.SubjectRepository {
	return &subjectPostgreSQL{db: db}
}

func (r *subjectPostgreSQL) Create(ctx context.Context, subject *models.Subject) error {
	if err := r.db.WithContext(ctx).Create(subject).Error; err != nil {
		return handleDBError(err, "create subject")
	}
	return nil
}

func (r *subjectPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, handleDBError(err, "get subject by id")
	}
	return &subject, nil
}

func (r *subjectPostgreSQL) GetByCode(ctx context.Context, code string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&subject).Error; err != nil {
		return nil, handleDBError(err, "get subject by code")
	}
	return &subject, nil
}

func (r *subjectPostgreSQL) Update(ctx context.Context, subject *models.Subject) error {
	if err := r.db.WithContext(ctx).Save(subject).Error; err != nil {
		return handleDBError(err, "update subject")
	}
	return nil
}

func (r *subjectPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete subject")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete subject")
	}
	return nil
}

func (r *subjectPostgreSQL) List(ctx context.Context, filters repositories.SubjectFilters) ([]*models.Subject, int64, error) {
	var subjects []*models.Subject
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Subject{})
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count subjects")
	}

	query = applyPagination(query.Order("name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&subjects).Error; err != nil {
		return nil, 0, handleDBError(err, "list subjects")
	}
	return subjects, total, nil
}

// ===== CLASS SUBJECTS =====

type classSubjectPostgreSQL struct {
	db *gorm.DB
}

func NewClassSubjectPostgreSQL(db *gorm.DB) repositories.ClassSubjectRepository {
	return &classSubjectPostgreSQL{db: db}
}

func (r *classSubjectPostgreSQL) Create(ctx context.Context, cs *models.ClassSubject) error {
	if err := r.db.WithContext(ctx).Omit("Subject").Create(cs).Error; err != nil {
		return handleDBError(err, "create class subject")
	}
	return nil
}

func (r *classSubjectPostgreSQL) Get(ctx context.Context, classID, subjectID uint) (*models.ClassSubject, error) {
	var cs models.ClassSubject
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_id = ?", classID, subjectID).
		First(&cs).Error; err != nil {
		return nil, handleDBError(err, "get class subject")
	}
	return &cs, nil
}

func (r *classSubjectPostgreSQL) Update(ctx context.Context, cs *models.ClassSubject) error {
	if err := r.db.WithContext(ctx).Omit("Subject").Save(cs).Error; err != nil {
		return handleDBError(err, "update class subject")
	}
	return nil
}

func (r *classSubjectPostgreSQL) ListByClass(ctx context.Context, classID uint) ([]*models.ClassSubject, error) {
	var rows []*models.ClassSubject
	if err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("class_id = ?", classID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, handleDBError(err, "list class subjects")
	}
	return rows, nil
}

// ===== TEACHER ASSIGNMENTS =====

type teacherAssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewTeacherAssignmentPostgreSQL(db *gorm.DB) repositories.TeacherAssignmentRepository {
	return &teacherAssignmentPostgreSQL{db: db}
}

func (r *teacherAssignmentPostgreSQL) Create(ctx context.Context, cts *models.ClassTeacherSubject) error {
	if err := r.db.WithContext(ctx).Omit("Teacher", "Subject").Create(cts).Error; err != nil {
		return handleDBError(err, "create teacher assignment")
	}
	return nil
}

func (r *teacherAssignmentPostgreSQL) Get(ctx context.Context, classID, teacherID, subjectID uint) (*models.ClassTeacherSubject, error) {
	var cts models.ClassTeacherSubject
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND teacher_id = ? AND subject_id = ?", classID, teacherID, subjectID).
		First(&cts).Error; err != nil {
		return nil, handleDBError(err, "get teacher assignment")
	}
	return &cts, nil
}

func (r *teacherAssignmentPostgreSQL) Update(ctx context.Context, cts *models.ClassTeacherSubject) error {
	if err := r.db.WithContext(ctx).Omit("Teacher", "Subject").Save(cts).Error; err != nil {
		return handleDBError(err, "update teacher assignment")
	}
	return nil
}

func (r *teacherAssignmentPostgreSQL) ListByClass(ctx context.Context, classID uint) ([]*models.ClassTeacherSubject, error) {
	var rows []*models.ClassTeacherSubject
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Subject").
		Where("class_id = ? AND is_active = ?", classID, true).
		Find(&rows).Error; err != nil {
		return nil, handleDBError(err, "list teacher assignments")
	}
	return rows, nil
}

func (r *teacherAssignmentPostgreSQL) HasClassAccess(ctx context.Context, teacherID, classID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClassTeacherSubject{}).
		Where("teacher_id = ? AND class_id = ? AND is_active = ?", teacherID, classID, true).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check class access")
	}
	return count > 0, nil
}

func (r *teacherAssignmentPostgreSQL) HasClassSubjectAccess(ctx context.Context, teacherID, classID, subjectID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClassTeacherSubject{}).
		Where("teacher_id = ? AND class_id = ? AND subject_id = ? AND is_active = ?", teacherID, classID, subjectID, true).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check class subject access")
	}
	return count > 0, nil
}

func (r *teacherAssignmentPostgreSQL) ListClassIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&models.ClassTeacherSubject{}).
		Where("teacher_id = ? AND is_active = ?", teacherID, true).
		Distinct().
		Pluck("class_id", &ids).Error; err != nil {
		return nil, handleDBError(err, "list teacher classes")
	}
	return ids, nil
}

func (r *teacherAssignmentPostgreSQL) ListSubjectIDs(ctx context.Context, teacherID, classID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&models.ClassTeacherSubject{}).
		Where("teacher_id = ? AND class_id = ? AND is_active = ?", teacherID, classID, true).
		Distinct().
		Pluck("subject_id", &ids).Error; err != nil {
		return nil, handleDBError(err, "list teacher subjects")
	}
	return ids, nil
}

// ===== ENROLLMENTS =====

type enrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &enrollmentPostgreSQL{db: db}
}

func (r *enrollmentPostgreSQL) CreateBatch(ctx context.Context, enrollments []*models.StudentSubjectEnrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit("Student").CreateInBatches(enrollments, 100).Error; err != nil {
		return handleDBError(err, "create enrollments")
	}
	return nil
}

func (r *enrollmentPostgreSQL) ListByClassSubject(ctx context.Context, classID, subjectID uint) ([]*models.StudentSubjectEnrollment, error) {
	var rows []*models.StudentSubjectEnrollment
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_id = ?", classID, subjectID).
		Order("student_id ASC").
		Find(&rows).Error; err != nil {
		return nil, handleDBError(err, "list enrollments")
	}
	return rows, nil
}

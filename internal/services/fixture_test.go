package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/validator"
)

type testEnv struct {
	ctx       context.Context
	repo      *fakeRepo
	publisher *events.MockEventPublisher
	deps      Dependencies
	access    AccessPolicy
	now       time.Time

	admin   models.Principal
	teacher models.Principal

	nisn int
}

func newTestEnv(t *testing.T, ownership AssignmentOwnership) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		ctx:       context.Background(),
		repo:      newFakeRepo(),
		publisher: events.NewMockEventPublisher(logger),
		now:       time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	env.deps = Dependencies{
		Repo:      env.repo,
		Logger:    logger,
		Validator: validator.New(),
		Publisher: env.publisher,
		Now:       func() time.Time { return env.now },
	}
	env.access = NewAccessPolicy(env.repo, logger, ownership)
	env.admin = env.user(t, models.RoleAdmin, "Admin Sekolah")
	env.teacher = env.user(t, models.RoleTeacher, "Bu Sari")
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) user(t *testing.T, role models.UserRole, name string) models.Principal {
	t.Helper()
	u := &models.User{FullName: name, Email: fmt.Sprintf("user%d@pelangi.sch.id", e.repo.s.nextID+1), Role: role, Status: models.UserActive}
	require.NoError(t, e.repo.User().Create(e.ctx, u))
	return models.Principal{UserID: u.ID, Role: role}
}

func (e *testEnv) class(t *testing.T, name string, gradeLevel int) *models.Class {
	t.Helper()
	c := &models.Class{Name: name, GradeLevel: gradeLevel}
	require.NoError(t, e.repo.Class().Create(e.ctx, c))
	return c
}

func (e *testEnv) subject(t *testing.T, code, name string) *models.Subject {
	t.Helper()
	s := &models.Subject{Code: code, Name: name}
	require.NoError(t, e.repo.Subject().Create(e.ctx, s))
	return s
}

// teach assigns the teacher to the subject in the class.
func (e *testEnv) teach(t *testing.T, teacher models.Principal, classID, subjectID uint) {
	t.Helper()
	require.NoError(t, e.repo.TeacherAssignment().Create(e.ctx, &models.ClassTeacherSubject{
		ClassID: classID, TeacherID: teacher.UserID, SubjectID: subjectID, IsActive: true,
	}))
}

// student creates a SISWA user linked to a student row with an empty XP row.
func (e *testEnv) student(t *testing.T, name string, classID *uint) (*models.Student, models.Principal) {
	t.Helper()
	p := e.user(t, models.RoleStudent, name)
	e.nisn++
	st := &models.Student{
		StudentID: fmt.Sprintf("00%08d", e.nisn),
		FullName:  name,
		ClassID:   classID,
		UserID:    &p.UserID,
		Status:    models.StudentActive,
	}
	require.NoError(t, createStudentWithXP(e.ctx, e.repo, st))
	return st, p
}

func (e *testEnv) totalXP(t *testing.T, studentID uint) int {
	t.Helper()
	xp, err := e.repo.StudentXP().GetByStudentID(e.ctx, studentID)
	require.NoError(t, err)
	return xp.TotalXP
}

func uintPtr(v uint) *uint    { return &v }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

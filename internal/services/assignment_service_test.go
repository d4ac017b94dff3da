package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

type assignmentFixture struct {
	env      *testEnv
	svc      AssignmentService
	class    *models.Class
	subject  *models.Subject
	students []*models.Student
	logins   []models.Principal
}

func newAssignmentFixture(t *testing.T, ownership AssignmentOwnership, studentCount int) *assignmentFixture {
	t.Helper()
	env := newTestEnv(t, ownership)
	f := &assignmentFixture{
		env:     env,
		svc:     NewAssignmentService(env.deps, env.access),
		class:   env.class(t, "8B", 8),
		subject: env.subject(t, "IPA", "Ilmu Pengetahuan Alam"),
	}
	env.teach(t, env.teacher, f.class.ID, f.subject.ID)
	names := []string{"Andi", "Budi", "Citra", "Dewi", "Eka", "Fajar"}
	for i := 0; i < studentCount; i++ {
		st, p := env.student(t, names[i%len(names)], &f.class.ID)
		f.students = append(f.students, st)
		f.logins = append(f.logins, p)
	}
	return f
}

func (f *assignmentFixture) publish(t *testing.T) *models.Assignment {
	t.Helper()
	a, err := f.svc.Create(f.env.ctx, f.env.teacher, &models.AssignmentCreateRequest{
		ClassID:   f.class.ID,
		SubjectID: &f.subject.ID,
		Title:     "Laporan Praktikum",
		Deadline:  f.env.now.Add(48 * time.Hour),
		Status:    models.AssignmentPublished,
	})
	require.NoError(t, err)
	return a
}

func (f *assignmentFixture) submission(t *testing.T, assignmentID, studentID uint) *models.AssignmentSubmission {
	t.Helper()
	sub, err := f.env.repo.Submission().GetByAssignmentAndStudent(f.env.ctx, assignmentID, studentID)
	require.NoError(t, err)
	return sub
}

func TestAssignmentService_CreateProvisionsSubmissions(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 3)
	a := f.publish(t)

	assert.Equal(t, f.env.teacher.UserID, a.TeacherID)
	assert.Equal(t, models.DefaultAssignmentPoints, a.Points)
	assert.Equal(t, models.AssignmentTugasHarian, a.Type)

	subs, err := f.env.repo.Submission().ListByAssignment(f.env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	for _, sub := range subs {
		assert.Equal(t, models.SubmissionNotSubmitted, sub.Status)
	}

	created := f.env.publisher.EventsOfType(events.TypeAssignmentCreated)
	require.Len(t, created, 1)
}

func TestAssignmentService_CreateRequiresClassAccess(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 1)
	outsider := f.env.user(t, models.RoleTeacher, "Pak Joko")

	tests := []struct {
		name      string
		principal models.Principal
		classID   uint
		wantErr   func(error) bool
	}{
		{name: "teacher outside class", principal: outsider, classID: f.class.ID, wantErr: IsForbidden},
		{name: "student", principal: f.logins[0], classID: f.class.ID, wantErr: IsForbidden},
		{name: "unknown class", principal: f.env.admin, classID: 999, wantErr: IsNotFound},
		{name: "admin", principal: f.env.admin, classID: f.class.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.env.ctx, tt.principal, &models.AssignmentCreateRequest{
				ClassID:  tt.classID,
				Title:    "Tugas",
				Deadline: f.env.now.Add(time.Hour),
			})
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAssignmentService_CreateIsAllOrNothing(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 3)
	f.env.repo.s.failSubmissionBatch = true

	_, err := f.svc.Create(f.env.ctx, f.env.teacher, &models.AssignmentCreateRequest{
		ClassID:  f.class.ID,
		Title:    "Rangkuman Bab 2",
		Deadline: f.env.now.Add(time.Hour),
		Status:   models.AssignmentPublished,
	})
	require.Error(t, err)

	assert.Empty(t, f.env.repo.s.assignments)
	assert.Empty(t, f.env.repo.s.submissions)
	assert.Empty(t, f.env.publisher.EventsOfType(events.TypeAssignmentCreated))

	page, err := f.svc.List(f.env.ctx, f.env.teacher, repositories.AssignmentFilters{}, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.TotalElements)
}

func TestAssignmentService_Submit(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 2)
	a := f.publish(t)
	onTime, late := f.students[0], f.students[1]

	sub, err := f.svc.Submit(f.env.ctx, f.logins[0], a.ID, &models.SubmitAssignmentRequest{Content: "jawaban"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	require.NotNil(t, sub.SubmittedAt)

	xp, err := f.env.repo.StudentXP().GetByStudentID(f.env.ctx, onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, xp.AssignmentStreak)

	t.Run("resubmission is a conflict", func(t *testing.T) {
		_, err := f.svc.Submit(f.env.ctx, f.logins[0], a.ID, &models.SubmitAssignmentRequest{Content: "revisi"})
		assert.True(t, IsConflict(err))
		assert.Equal(t, "jawaban", f.submission(t, a.ID, onTime.ID).Content)
	})

	t.Run("after deadline is late", func(t *testing.T) {
		require.NoError(t, f.env.repo.StudentXP().BumpStreak(f.env.ctx, late.ID, repositories.AssignmentStreak, false))
		f.env.advance(72 * time.Hour)

		sub, err := f.svc.Submit(f.env.ctx, f.logins[1], a.ID, &models.SubmitAssignmentRequest{Content: "telat"})
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionLateSubmitted, sub.Status)

		xp, err := f.env.repo.StudentXP().GetByStudentID(f.env.ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, xp.AssignmentStreak)
	})

	t.Run("staff cannot submit", func(t *testing.T) {
		_, err := f.svc.Submit(f.env.ctx, f.env.teacher, a.ID, &models.SubmitAssignmentRequest{})
		assert.True(t, IsForbidden(err))
	})
}

func TestAssignmentService_SubmitDraftIsConflict(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 1)
	draft, err := f.svc.Create(f.env.ctx, f.env.teacher, &models.AssignmentCreateRequest{
		ClassID:  f.class.ID,
		Title:    "Draf",
		Deadline: f.env.now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentDraft, draft.Status)

	_, err = f.svc.Submit(f.env.ctx, f.logins[0], draft.ID, &models.SubmitAssignmentRequest{})
	assert.True(t, IsConflict(err))
}

func TestAssignmentService_GradeAwardsXPOnce(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 1)
	a := f.publish(t)
	student := f.students[0]
	sub := f.submission(t, a.ID, student.ID)

	steps := []struct {
		name      string
		score     float64
		wantXP    int
		wantTotal int
	}{
		{name: "first grade", score: 55, wantXP: 10, wantTotal: 10},
		{name: "better regrade grants difference", score: 90, wantXP: 50, wantTotal: 50},
		{name: "worse regrade keeps xp", score: 40, wantXP: 50, wantTotal: 50},
		{name: "same tier again", score: 95, wantXP: 50, wantTotal: 50},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			graded, err := f.svc.Grade(f.env.ctx, f.env.teacher, sub.ID, &models.GradeSubmissionRequest{Score: step.score})
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionGraded, graded.Status)
			require.NotNil(t, graded.Score)
			assert.Equal(t, step.score, *graded.Score)
			assert.Equal(t, step.wantXP, graded.XPAwarded)
			assert.Equal(t, step.wantTotal, f.env.totalXP(t, student.ID))
		})
	}

	t.Run("score above points", func(t *testing.T) {
		_, err := f.svc.Grade(f.env.ctx, f.env.teacher, sub.ID, &models.GradeSubmissionRequest{Score: 101})
		assert.True(t, IsValidation(err))
	})
}

func TestAssignmentService_ConcurrentWritesConflict(t *testing.T) {
	t.Run("grade racing another grade", func(t *testing.T) {
		f := newAssignmentFixture(t, OwnerOnly, 1)
		a := f.publish(t)
		student := f.students[0]
		sub := f.submission(t, a.ID, student.ID)

		// another grader commits after our read
		f.env.repo.s.beforeGuardedWrite = func(s *fakeStore) {
			s.submissions[sub.ID].Status = models.SubmissionGraded
			s.submissions[sub.ID].XPAwarded = 50
		}
		_, err := f.svc.Grade(f.env.ctx, f.env.teacher, sub.ID, &models.GradeSubmissionRequest{Score: 95})
		assert.True(t, IsConflict(err), "unexpected error: %v", err)
		assert.Equal(t, 0, f.env.totalXP(t, student.ID))
		assert.Empty(t, f.env.publisher.EventsOfType(events.TypeSubmissionGraded))
	})

	t.Run("double submit", func(t *testing.T) {
		f := newAssignmentFixture(t, OwnerOnly, 1)
		a := f.publish(t)
		sub := f.submission(t, a.ID, f.students[0].ID)

		f.env.repo.s.beforeGuardedWrite = func(s *fakeStore) {
			s.submissions[sub.ID].Status = models.SubmissionSubmitted
		}
		_, err := f.svc.Submit(f.env.ctx, f.logins[0], a.ID, &models.SubmitAssignmentRequest{Content: "kedua"})
		assert.True(t, IsConflict(err), "unexpected error: %v", err)
		assert.Empty(t, f.env.publisher.EventsOfType(events.TypeSubmissionCreated))
	})
}

func TestAssignmentService_Ownership(t *testing.T) {
	tests := []struct {
		name        string
		ownership   AssignmentOwnership
		actor       func(f *assignmentFixture) models.Principal
		wantAllowed bool
	}{
		{name: "owner under owner only", ownership: OwnerOnly, actor: func(f *assignmentFixture) models.Principal { return f.env.teacher }, wantAllowed: true},
		{name: "admin under owner only", ownership: OwnerOnly, actor: func(f *assignmentFixture) models.Principal { return f.env.admin }},
		{name: "admin under owner or admin", ownership: OwnerOrAdmin, actor: func(f *assignmentFixture) models.Principal { return f.env.admin }, wantAllowed: true},
		{name: "student", ownership: OwnerOrAdmin, actor: func(f *assignmentFixture) models.Principal { return f.logins[0] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAssignmentFixture(t, tt.ownership, 1)
			a := f.publish(t)
			sub := f.submission(t, a.ID, f.students[0].ID)
			actor := tt.actor(f)

			_, gradeErr := f.svc.Grade(f.env.ctx, actor, sub.ID, &models.GradeSubmissionRequest{Score: 80})
			_, updateErr := f.svc.Update(f.env.ctx, actor, a.ID, &models.AssignmentUpdateRequest{Title: strPtr("Judul baru")})
			_, statsErr := f.svc.Stats(f.env.ctx, actor, a.ID)
			if tt.wantAllowed {
				assert.NoError(t, gradeErr)
				assert.NoError(t, updateErr)
				assert.NoError(t, statsErr)
				return
			}
			assert.True(t, IsForbidden(gradeErr))
			assert.True(t, IsForbidden(updateErr))
			assert.True(t, IsForbidden(statsErr))
		})
	}

	// Get and List agree for staff under both policies.
	for _, ownership := range []AssignmentOwnership{OwnerOnly, OwnerOrAdmin} {
		t.Run("admin reads under "+ownership.String(), func(t *testing.T) {
			f := newAssignmentFixture(t, ownership, 1)
			a := f.publish(t)

			resp, getErr := f.svc.Get(f.env.ctx, f.env.admin, a.ID)
			page, err := f.svc.List(f.env.ctx, f.env.admin, repositories.AssignmentFilters{}, models.ListParams{})
			require.NoError(t, err)

			if ownership == OwnerOrAdmin {
				require.NoError(t, getErr)
				assert.NotNil(t, resp.Stats)
				assert.Equal(t, int64(1), page.TotalElements)
				return
			}
			assert.True(t, IsForbidden(getErr), "unexpected error: %v", getErr)
			assert.Equal(t, int64(0), page.TotalElements)
		})
	}

	t.Run("another teacher of the class", func(t *testing.T) {
		f := newAssignmentFixture(t, OwnerOrAdmin, 1)
		a := f.publish(t)
		colleague := f.env.user(t, models.RoleTeacher, "Pak Budi")
		f.env.teach(t, colleague, f.class.ID, f.subject.ID)

		err := f.svc.Delete(f.env.ctx, colleague, a.ID)
		assert.True(t, IsForbidden(err))

		// class access does not open another teacher's assignment or its stats
		resp, err := f.svc.Get(f.env.ctx, colleague, a.ID)
		assert.True(t, IsForbidden(err), "unexpected error: %v", err)
		assert.Nil(t, resp)

		page, err := f.svc.List(f.env.ctx, colleague, repositories.AssignmentFilters{ClassID: &f.class.ID}, models.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.TotalElements)
	})
}

func TestAssignmentService_BulkGrade(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 3)
	a := f.publish(t)
	failing := f.students[1]
	f.env.repo.s.failSubmissionUpdate[failing.ID] = true

	ids := []uint{f.students[0].ID, failing.ID, f.students[2].ID}
	result, err := f.svc.BulkGrade(f.env.ctx, f.env.teacher, a.ID, &models.BulkGradeRequest{StudentIDs: ids, Score: 92})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, failing.ID, result.Errors[0].ItemID)

	assert.Equal(t, 50, f.env.totalXP(t, f.students[0].ID))
	assert.Equal(t, 0, f.env.totalXP(t, failing.ID))
	assert.Equal(t, models.SubmissionNotSubmitted, f.submission(t, a.ID, failing.ID).Status)
}

func TestAssignmentService_BulkGradeBackfillsMissingSubmission(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 1)
	a := f.publish(t)
	latecomer, _ := f.env.student(t, "Gilang", &f.class.ID)

	result, err := f.svc.BulkGrade(f.env.ctx, f.env.teacher, a.ID, &models.BulkGradeRequest{StudentIDs: []uint{latecomer.ID}, Score: 75})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)

	sub := f.submission(t, a.ID, latecomer.ID)
	assert.Equal(t, models.OriginTeacherBackfilled, sub.Origin)
	assert.Equal(t, models.SubmissionGraded, sub.Status)
	assert.Equal(t, 30, sub.XPAwarded)
}

func TestAssignmentService_StudentViews(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 2)
	a := f.publish(t)
	_, err := f.svc.Create(f.env.ctx, f.env.teacher, &models.AssignmentCreateRequest{
		ClassID:  f.class.ID,
		Title:    "Belum terbit",
		Deadline: f.env.now.Add(time.Hour),
	})
	require.NoError(t, err)

	page, err := f.svc.List(f.env.ctx, f.logins[0], repositories.AssignmentFilters{}, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	items, err := f.svc.StudentAssignments(f.env.ctx, f.logins[0], f.students[0].ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].Assignment.ID)
	assert.False(t, items[0].IsOverdue)

	f.env.advance(96 * time.Hour)
	items, err = f.svc.StudentAssignments(f.env.ctx, f.logins[0], f.students[0].ID)
	require.NoError(t, err)
	assert.True(t, items[0].IsOverdue)

	_, err = f.svc.StudentAssignments(f.env.ctx, f.logins[0], f.students[1].ID)
	assert.True(t, IsForbidden(err))
}

func TestAssignmentService_Stats(t *testing.T) {
	f := newAssignmentFixture(t, OwnerOnly, 4)
	a := f.publish(t)

	_, err := f.svc.Submit(f.env.ctx, f.logins[0], a.ID, &models.SubmitAssignmentRequest{})
	require.NoError(t, err)
	_, err = f.svc.Submit(f.env.ctx, f.logins[1], a.ID, &models.SubmitAssignmentRequest{})
	require.NoError(t, err)
	sub := f.submission(t, a.ID, f.students[1].ID)
	_, err = f.svc.Grade(f.env.ctx, f.env.teacher, sub.ID, &models.GradeSubmissionRequest{Score: 80})
	require.NoError(t, err)

	stats, err := f.svc.Stats(f.env.ctx, f.env.teacher, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalStudents)
	assert.Equal(t, int64(2), stats.NotSubmitted)
	assert.Equal(t, int64(1), stats.Submitted)
	assert.Equal(t, int64(1), stats.Graded)
	assert.InDelta(t, 50.0, stats.SubmissionRate, 0.001)
	assert.InDelta(t, 80.0, stats.AverageScore, 0.001)
}

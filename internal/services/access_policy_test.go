package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

func TestParseAssignmentOwnership(t *testing.T) {
	assert.Equal(t, OwnerOrAdmin, ParseAssignmentOwnership(" OWNER_OR_ADMIN "))
	assert.Equal(t, OwnerOnly, ParseAssignmentOwnership("owner_only"))
	assert.Equal(t, OwnerOnly, ParseAssignmentOwnership(""))
	assert.Equal(t, "owner_or_admin", OwnerOrAdmin.String())
}

func TestAccessPolicy_ClassAccess(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	mine := env.class(t, "7A", 7)
	other := env.class(t, "7B", 7)
	mtk := env.subject(t, "MTK", "Matematika")
	bio := env.subject(t, "BIO", "Biologi")
	env.teach(t, env.teacher, mine.ID, mtk.ID)
	_, studentLogin := env.student(t, "Andi", &mine.ID)

	tests := []struct {
		name      string
		principal models.Principal
		classID   uint
		subjectID *uint
		allowed   bool
	}{
		{name: "admin any class", principal: env.admin, classID: other.ID, allowed: true},
		{name: "teacher own class", principal: env.teacher, classID: mine.ID, allowed: true},
		{name: "teacher other class", principal: env.teacher, classID: other.ID},
		{name: "teacher own subject", principal: env.teacher, classID: mine.ID, subjectID: &mtk.ID, allowed: true},
		{name: "teacher other subject", principal: env.teacher, classID: mine.ID, subjectID: &bio.ID},
		{name: "student", principal: studentLogin, classID: mine.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.subjectID != nil {
				err = env.access.CheckClassSubjectAccess(env.ctx, tt.principal, tt.classID, *tt.subjectID)
			} else {
				err = env.access.CheckClassAccess(env.ctx, tt.principal, tt.classID)
			}
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsForbidden(err), "unexpected error: %v", err)
		})
	}
}

func TestAccessPolicy_StudentResource(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	class := env.class(t, "8A", 8)
	mtk := env.subject(t, "MTK", "Matematika")
	env.teach(t, env.teacher, class.ID, mtk.ID)
	me, meLogin := env.student(t, "Budi", &class.ID)
	other, _ := env.student(t, "Citra", &class.ID)
	orphan := env.user(t, models.RoleStudent, "Belum Terdaftar")

	assert.NoError(t, env.access.CheckStudentResource(env.ctx, meLogin, me.ID, class.ID, nil))
	assert.True(t, IsForbidden(env.access.CheckStudentResource(env.ctx, meLogin, other.ID, class.ID, nil)))
	assert.True(t, IsForbidden(env.access.CheckStudentResource(env.ctx, orphan, me.ID, class.ID, nil)))
	assert.NoError(t, env.access.CheckStudentResource(env.ctx, env.teacher, other.ID, class.ID, &mtk.ID))
	assert.NoError(t, env.access.CheckStudentResource(env.ctx, env.admin, other.ID, 0, nil))

	stranger := env.user(t, models.RoleTeacher, "Pak Joko")
	assert.True(t, IsForbidden(env.access.CheckStudentResource(env.ctx, stranger, other.ID, class.ID, nil)))
}

func TestAccessPolicy_VisibleClassIDs(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	a := env.class(t, "9A", 9)
	b := env.class(t, "9B", 9)
	mtk := env.subject(t, "MTK", "Matematika")
	ipa := env.subject(t, "IPA", "IPA")
	env.teach(t, env.teacher, a.ID, mtk.ID)
	env.teach(t, env.teacher, a.ID, ipa.ID)
	_, placed := env.student(t, "Dewi", &b.ID)
	_, unplaced := env.student(t, "Eka", nil)
	idle := env.user(t, models.RoleTeacher, "Bu Rina")

	ids, err := env.access.VisibleClassIDs(env.ctx, env.admin)
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = env.access.VisibleClassIDs(env.ctx, env.teacher)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids)

	ids, err = env.access.VisibleClassIDs(env.ctx, idle)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	ids, err = env.access.VisibleClassIDs(env.ctx, placed)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)

	ids, err = env.access.VisibleClassIDs(env.ctx, unplaced)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAccessPolicy_AssignmentOwnership(t *testing.T) {
	assignment := &models.Assignment{ID: 1}

	tests := []struct {
		name      string
		ownership AssignmentOwnership
		role      models.UserRole
		owner     bool
		allowed   bool
	}{
		{name: "owner, owner only", ownership: OwnerOnly, role: models.RoleTeacher, owner: true, allowed: true},
		{name: "admin, owner only", ownership: OwnerOnly, role: models.RoleAdmin},
		{name: "admin, owner or admin", ownership: OwnerOrAdmin, role: models.RoleAdmin, allowed: true},
		{name: "other teacher, owner or admin", ownership: OwnerOrAdmin, role: models.RoleTeacher},
		{name: "student, owner or admin", ownership: OwnerOrAdmin, role: models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access := NewAccessPolicy(newFakeRepo(), nil, tt.ownership)
			p := models.Principal{UserID: 10, Role: tt.role}
			assignment.TeacherID = 20
			if tt.owner {
				assignment.TeacherID = p.UserID
			}
			err := access.CheckAssignmentOwnership(p, assignment, "grade")
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsForbidden(err))
		})
	}
}

func TestAccessPolicy_SubjectScope(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	class := env.class(t, "7A", 7)
	other := env.class(t, "7B", 7)
	mtk := env.subject(t, "MTK", "Matematika")
	ipa := env.subject(t, "IPA", "IPA")
	env.teach(t, env.teacher, class.ID, mtk.ID)
	env.teach(t, env.teacher, other.ID, ipa.ID)

	ids, err := env.access.SubjectScope(env.ctx, env.teacher, class.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{mtk.ID}, ids)

	_, err = env.access.SubjectScope(env.ctx, env.user(t, models.RoleTeacher, "Pak Joko"), class.ID)
	assert.True(t, IsForbidden(err), "unexpected error: %v", err)

	ids, err = env.access.SubjectScope(env.ctx, env.admin, class.ID)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

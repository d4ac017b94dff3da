package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

func newImportExportService(env *testEnv) ImportExportService {
	return NewImportExportService(env.deps, env.access, NewXPService(env.deps, env.access))
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", start, &r))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func readSheet(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestImportExportService_ImportStudents(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := newImportExportService(env)
	class := env.class(t, "7A", 7)
	env.student(t, "Sudah Ada", nil) // NISN 0000000001

	file := workbook(t, [][]interface{}{
		{"NISN", "Nama", "JK"},
		{"0021000001", "Andi", "Laki-laki"},
		{"123", "NISN Pendek", "L"},
		{"0021000002", "Budi", "p"},
		{},
		{"0000000001", "Duplikat", "L"},
	})

	result, err := svc.ImportStudents(env.ctx, env.admin, class.ID, file)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 4, result.Total)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 6, result.Errors[1].Row)

	imported, _, err := env.repo.Student().List(env.ctx, repositories.StudentFilters{ClassIDs: []uint{class.ID}})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "L", *imported[0].Gender)
	assert.Equal(t, "P", *imported[1].Gender)
	assert.Equal(t, 0, env.totalXP(t, imported[0].ID))

	t.Run("teacher cannot import", func(t *testing.T) {
		_, err := svc.ImportStudents(env.ctx, env.teacher, class.ID, workbook(t, nil))
		assert.True(t, IsForbidden(err))
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := svc.ImportStudents(env.ctx, env.admin, class.ID, bytes.NewBufferString("nisn,nama"))
		assert.True(t, IsValidation(err))
	})
}

func TestImportExportService_ExportClassGradeRecap(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := newImportExportService(env)
	classes := NewClassService(env.deps, env.access)
	grades := NewGradeService(env.deps, env.access)
	class := env.class(t, "8A", 8)
	mtk := env.subject(t, "MTK", "Matematika")
	ipa := env.subject(t, "IPA", "IPA")
	andi, _ := env.student(t, "Andi", &class.ID)
	env.student(t, "Budi", &class.ID)
	for _, subjectID := range []uint{mtk.ID, ipa.ID} {
		_, err := classes.AddSubjectToClass(env.ctx, env.admin, class.ID, subjectID)
		require.NoError(t, err)
	}
	env.teach(t, env.teacher, class.ID, mtk.ID)

	for _, g := range []struct {
		subject uint
		score   float64
	}{{mtk.ID, 80}, {mtk.ID, 95}, {ipa.ID, 70}} {
		_, err := grades.Create(env.ctx, env.admin, &models.GradeCreateRequest{
			StudentID: andi.ID, ClassID: class.ID, SubjectID: g.subject, GradeType: models.GradeQuiz, Score: g.score,
		})
		require.NoError(t, err)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, svc.ExportClassGradeRecap(env.ctx, env.teacher, class.ID, buf))

	rows := readSheet(t, buf, recapSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"No", "NISN", "Nama", "Matematika", "IPA", "Rata-rata"}, rows[0])
	assert.Equal(t, []string{"1", andi.StudentID, "Andi", "87.5", "70", "78.8"}, rows[1])
	assert.Equal(t, []string{"-", "-", "-"}, rows[2][3:])

	outsider := env.user(t, models.RoleTeacher, "Pak Joko")
	err := svc.ExportClassGradeRecap(env.ctx, outsider, class.ID, &bytes.Buffer{})
	assert.True(t, IsForbidden(err))
}

func TestImportExportService_ExportLeaderboard(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := newImportExportService(env)
	xp := NewXPService(env.deps, env.access)
	class := env.class(t, "9A", 9)
	andi, _ := env.student(t, "Andi", &class.ID)
	budi, _ := env.student(t, "Budi", &class.ID)
	_, err := xp.GrantXP(env.ctx, andi.ID, 120, "seed")
	require.NoError(t, err)
	_, err = xp.GrantXP(env.ctx, budi.ID, 300, "seed")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, svc.ExportLeaderboard(env.ctx, 10, &class.ID, buf))

	rows := readSheet(t, buf, leaderboardSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Budi", "9A", "300", "3", "Rajin"}, rows[1])
	assert.Equal(t, []string{"2", "Andi", "9A", "120", "2", "Pelajar"}, rows[2])
}

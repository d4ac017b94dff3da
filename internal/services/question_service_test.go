package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

func TestQuestionService_Create(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := NewQuestionService(env.deps)
	mtk := env.subject(t, "MTK", "Matematika")
	_, studentLogin := env.student(t, "Andi", nil)
	missing := uint(999)

	tests := []struct {
		name      string
		principal models.Principal
		req       models.QuestionCreateRequest
		wantErr   func(error) bool
	}{
		{
			name:      "multiple choice",
			principal: env.teacher,
			req: models.QuestionCreateRequest{
				SubjectID: &mtk.ID, Type: models.MultipleChoice, Text: "2 + 2 = ?",
				Options: []string{"3", "4"}, CorrectAnswer: "4", Tags: []string{" Aljabar", "aljabar", "dasar"},
			},
		},
		{name: "answer outside options", principal: env.teacher, req: models.QuestionCreateRequest{Type: models.MultipleChoice, Text: "x", Options: []string{"a", "b"}, CorrectAnswer: "c"}, wantErr: IsValidation},
		{name: "one option", principal: env.teacher, req: models.QuestionCreateRequest{Type: models.MultipleChoice, Text: "x", Options: []string{"a"}}, wantErr: IsValidation},
		{name: "true false", principal: env.teacher, req: models.QuestionCreateRequest{Type: models.TrueFalse, Text: "Bumi bulat", CorrectAnswer: "TRUE"}},
		{name: "true false bad answer", principal: env.teacher, req: models.QuestionCreateRequest{Type: models.TrueFalse, Text: "x", CorrectAnswer: "ya"}, wantErr: IsValidation},
		{name: "unknown subject", principal: env.teacher, req: models.QuestionCreateRequest{SubjectID: &missing, Type: models.Essay, Text: "x"}, wantErr: IsValidation},
		{name: "student", principal: studentLogin, req: models.QuestionCreateRequest{Type: models.Essay, Text: "x"}, wantErr: IsForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			q, err := svc.Create(env.ctx, tt.principal, &req)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.DifficultyMedium, q.Difficulty)
			assert.Equal(t, tt.principal.UserID, q.CreatedBy)
		})
	}

	t.Run("tags are normalised", func(t *testing.T) {
		mc := models.MultipleChoice
		page, err := svc.List(env.ctx, env.teacher, repositories.QuestionFilters{Type: &mc}, models.ListParams{})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.TotalElements)
		q := page.Content.([]*models.Question)[0]
		var tags []string
		require.NoError(t, json.Unmarshal(q.Tags, &tags))
		assert.Equal(t, []string{"aljabar", "dasar"}, tags)
	})
}

func TestQuestionService_Ownership(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := NewQuestionService(env.deps)
	colleague := env.user(t, models.RoleTeacher, "Pak Joko")

	var mine []uint
	for _, text := range []string{"Soal 1", "Soal 2", "Soal 3"} {
		q, err := svc.Create(env.ctx, env.teacher, &models.QuestionCreateRequest{Type: models.Essay, Text: text})
		require.NoError(t, err)
		mine = append(mine, q.ID)
	}
	theirs, err := svc.Create(env.ctx, colleague, &models.QuestionCreateRequest{Type: models.Essay, Text: "Soal rekan"})
	require.NoError(t, err)

	_, err = svc.Get(env.ctx, colleague, mine[0])
	assert.True(t, IsForbidden(err))
	_, err = svc.Get(env.ctx, env.admin, mine[0])
	require.NoError(t, err)

	text := "Soal 1 revisi"
	updated, err := svc.Update(env.ctx, env.teacher, mine[0], &models.QuestionUpdateRequest{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	_, err = svc.Update(env.ctx, colleague, mine[0], &models.QuestionUpdateRequest{Text: &text})
	assert.True(t, IsForbidden(err))

	page, err := svc.List(env.ctx, env.teacher, repositories.QuestionFilters{}, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	page, err = svc.List(env.ctx, env.admin, repositories.QuestionFilters{}, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalElements)

	t.Run("random selection stays within own bank", func(t *testing.T) {
		picked, err := svc.RandomSelection(env.ctx, env.teacher, repositories.RandomQuestionFilters{Count: 3})
		require.NoError(t, err)
		assert.Len(t, picked, 3)
		for _, q := range picked {
			assert.Equal(t, env.teacher.UserID, q.CreatedBy)
		}

		picked, err = svc.RandomSelection(env.ctx, env.teacher, repositories.RandomQuestionFilters{Count: 5, ExcludeIDs: []uint{mine[1]}})
		require.NoError(t, err)
		assert.Len(t, picked, 2)

		_, err = svc.RandomSelection(env.ctx, env.teacher, repositories.RandomQuestionFilters{Count: 51})
		assert.True(t, IsValidation(err))
	})

	assert.True(t, IsForbidden(svc.Delete(env.ctx, env.teacher, theirs.ID)))
	require.NoError(t, svc.Delete(env.ctx, colleague, theirs.ID))
	_, err = svc.Get(env.ctx, env.admin, theirs.ID)
	assert.True(t, IsNotFound(err))
}

func TestQuestionService_UpdateKeepsContentConsistent(t *testing.T) {
	env := newTestEnv(t, OwnerOnly)
	svc := NewQuestionService(env.deps)

	q, err := svc.Create(env.ctx, env.teacher, &models.QuestionCreateRequest{
		Type: models.MultipleChoice, Text: "Ibu kota Jawa Barat?",
		Options: []string{"Bandung", "Bogor", "Cirebon"}, CorrectAnswer: "Bandung",
	})
	require.NoError(t, err)

	// Dropping the answer from the options leaves the question unanswerable.
	_, err = svc.Update(env.ctx, env.teacher, q.ID, &models.QuestionUpdateRequest{Options: []string{"Bogor", "Cirebon"}})
	assert.True(t, IsValidation(err), "unexpected error: %v", err)

	_, err = svc.Update(env.ctx, env.teacher, q.ID, &models.QuestionUpdateRequest{Options: []string{"Bogor", "Bogor"}})
	assert.True(t, IsValidation(err), "unexpected error: %v", err)

	answer := "Bogor"
	updated, err := svc.Update(env.ctx, env.teacher, q.ID, &models.QuestionUpdateRequest{
		Options: []string{"Bogor", "Cirebon"}, CorrectAnswer: &answer,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bogor", updated.CorrectAnswer)

	essay, err := svc.Create(env.ctx, env.teacher, &models.QuestionCreateRequest{Type: models.Essay, Text: "Jelaskan siklus air"})
	require.NoError(t, err)
	_, err = svc.Update(env.ctx, env.teacher, essay.ID, &models.QuestionUpdateRequest{Options: []string{"a", "b"}})
	assert.True(t, IsValidation(err), "unexpected error: %v", err)

	_, err = svc.Create(env.ctx, env.teacher, &models.QuestionCreateRequest{Type: models.ShortAnswer, Text: "2 + 2 = ?"})
	assert.True(t, IsValidation(err), "unexpected error: %v", err)
}

package services

import (
	"encoding/json"
	"slices"
	"strings"

	"gorm.io/datatypes"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

func (s *questionService) applyQuestionUpdates(question *models.Question, req *models.QuestionUpdateRequest) {
	if req.SubjectID != nil {
		question.SubjectID = req.SubjectID
		question.Subject = nil
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Text != nil {
		question.Text = strings.TrimSpace(*req.Text)
	}
	if req.Options != nil {
		question.Options = toJSON(req.Options)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}
	if req.GradeLevel != nil {
		question.GradeLevel = req.GradeLevel
	}
	if req.Tags != nil {
		question.Tags = toJSON(normalizeTags(req.Tags))
	}
}

// ===== CONTENT VALIDATION =====

// validateQuestionContent checks the stored shape of a question after a
// partial update, when options and answer may have changed independently.
func (s *questionService) validateQuestionContent(question *models.Question) error {
	if strings.TrimSpace(question.Text) == "" {
		return NewValidationError("text", "question text cannot be empty", question.Text)
	}

	options, err := decodeStrings(question.Options)
	if err != nil {
		return NewValidationError("options", "options must be a list of strings", nil)
	}

	switch question.Type {
	case models.MultipleChoice:
		return validateMultipleChoiceContent(options, question.CorrectAnswer)
	case models.TrueFalse:
		return validateTrueFalseContent(question.CorrectAnswer)
	case models.Essay, models.ShortAnswer:
		return validateOpenContent(question.Type, options, question.CorrectAnswer)
	default:
		return NewValidationError("type", "unsupported question type", question.Type)
	}
}

func validateMultipleChoiceContent(options []string, answer string) error {
	if len(options) < 2 {
		return NewValidationError("options", "multiple choice needs at least 2 options", len(options))
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		key := strings.TrimSpace(opt)
		if key == "" {
			return NewValidationError("options", "options cannot be empty", opt)
		}
		if seen[key] {
			return NewValidationError("options", "options must be unique", opt)
		}
		seen[key] = true
	}
	if answer != "" && !slices.Contains(options, answer) {
		return NewValidationError("correct_answer", "must be one of the options", answer)
	}
	return nil
}

func validateTrueFalseContent(answer string) error {
	switch strings.ToLower(answer) {
	case "true", "false":
		return nil
	}
	return NewValidationError("correct_answer", "must be true or false", answer)
}

func validateOpenContent(questionType models.QuestionType, options []string, answer string) error {
	if len(options) > 0 {
		return NewValidationError("options", strings.ToLower(string(questionType))+" questions take no options", len(options))
	}
	if questionType == models.ShortAnswer && strings.TrimSpace(answer) == "" {
		return NewValidationError("correct_answer", "short answer needs a reference answer", answer)
	}
	return nil
}

func decodeStrings(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

const (
	defaultRandomCount = 10
	maxRandomCount     = 50
)

type questionService struct {
	serviceBase
}

func NewQuestionService(deps Dependencies) QuestionService {
	return &questionService{serviceBase: newServiceBase(deps)}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, p models.Principal, req *models.QuestionCreateRequest) (*models.Question, error) {
	if err := requireStaff(p, "question", "create"); err != nil {
		return nil, err
	}
	s.logger.Info("Creating question", "creator_id", p.UserID, "type", req.Type)

	if verrs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(verrs) > 0 {
		return nil, FromValidatorErrors(verrs)
	}
	if err := s.checkSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}

	question := &models.Question{
		SubjectID:     req.SubjectID,
		Type:          req.Type,
		Difficulty:    req.Difficulty,
		Text:          strings.TrimSpace(req.Text),
		Options:       toJSON(nonNilStrings(req.Options)),
		CorrectAnswer: req.CorrectAnswer,
		Tags:          toJSON(normalizeTags(req.Tags)),
		Explanation:   req.Explanation,
		GradeLevel:    req.GradeLevel,
		CreatedBy:     p.UserID,
	}
	if question.Difficulty == "" {
		question.Difficulty = models.DifficultyMedium
	}
	if err := s.validateQuestionContent(question); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.logger.Info("Question created successfully", "question_id", question.ID)
	return question, nil
}

func (s *questionService) Get(ctx context.Context, p models.Principal, id uint) (*models.Question, error) {
	return s.getOwned(ctx, p, id, "read")
}

func (s *questionService) Update(ctx context.Context, p models.Principal, id uint, req *models.QuestionUpdateRequest) (*models.Question, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	question, err := s.getOwned(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	if err := s.checkSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}
	s.applyQuestionUpdates(question, req)
	if err := s.validateQuestionContent(question); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, notFoundOr(err, ErrQuestionNotFound, "update question")
	}
	s.logger.Info("Question updated", "question_id", id, "user_id", p.UserID)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if _, err := s.getOwned(ctx, p, id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrQuestionNotFound, "delete question")
	}
	s.logger.Info("Question deleted", "question_id", id, "user_id", p.UserID)
	return nil
}

// ===== QUERIES =====

// List shows teachers their own bank; admins see every question.
func (s *questionService) List(ctx context.Context, p models.Principal, filters repositories.QuestionFilters, params models.ListParams) (*models.PaginatedResponse, error) {
	if err := requireStaff(p, "question", "list"); err != nil {
		return nil, err
	}
	if p.IsTeacher() {
		filters.CreatedBy = &p.UserID
	}
	if filters.Search == "" {
		filters.Search = params.Search
	}
	filters.Limit, filters.Offset = listWindow(&params)

	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return models.NewPaginatedResponse(questions, total, params), nil
}

// RandomSelection draws up to filters.Count questions from the bank the principal may read.
func (s *questionService) RandomSelection(ctx context.Context, p models.Principal, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	if err := requireStaff(p, "question", "list"); err != nil {
		return nil, err
	}
	if filters.Count <= 0 {
		filters.Count = defaultRandomCount
	}
	if filters.Count > maxRandomCount {
		return nil, NewValidationError("count", fmt.Sprintf("must not exceed %d", maxRandomCount), filters.Count)
	}

	if p.IsTeacher() {
		filters.CreatedBy = &p.UserID
	}

	questions, err := s.repo.Question().GetRandomQuestions(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}
	return questions, nil
}

// ===== HELPERS =====

func (s *questionService) getOwned(ctx context.Context, p models.Principal, id uint, action string) (*models.Question, error) {
	if err := requireStaff(p, "question", action); err != nil {
		return nil, err
	}
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrQuestionNotFound, "get question")
	}
	if !p.IsAdmin() && question.CreatedBy != p.UserID {
		return nil, NewPermissionError(p.UserID, id, "question", action, "not owner")
	}
	return question, nil
}

func (s *questionService) checkSubject(ctx context.Context, subjectID *uint) error {
	if subjectID == nil {
		return nil
	}
	if _, err := s.repo.Subject().GetByID(ctx, *subjectID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("subject_id", "subject does not exist", *subjectID)
		}
		return fmt.Errorf("failed to get subject: %w", err)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

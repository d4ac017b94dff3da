package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

const (
	MinChallengeDuration = 1
	MaxChallengeDuration = 365
	MinXPReward          = 1
	MaxXPReward          = 1000
)

var (
	nisnPattern         = regexp.MustCompile(`^[0-9]{10}$`)
	academicYearPattern = regexp.MustCompile(`^([0-9]{4})/([0-9]{4})$`)
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateChallengeCreate validates challenge creation
func (bv *BusinessValidator) ValidateChallengeCreate(req *models.ChallengeCreateRequest) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)

	if req.Title != "" && strings.TrimSpace(req.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "must not be blank", Value: req.Title, Rule: "business_logic"})
	}
	return errors
}

// ValidateAssignmentCreate validates assignment creation
func (bv *BusinessValidator) ValidateAssignmentCreate(req *models.AssignmentCreateRequest) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)

	if req.Title != "" && strings.TrimSpace(req.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "must not be blank", Value: req.Title, Rule: "business_logic"})
	}
	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *models.QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)

	switch req.Type {
	case models.MultipleChoice:
		if len(req.Options) < 2 {
			errors = append(errors, ValidationError{Field: "options", Message: "multiple choice needs at least 2 options", Value: len(req.Options), Rule: "business_logic"})
		} else if req.CorrectAnswer != "" && !containsString(req.Options, req.CorrectAnswer) {
			errors = append(errors, ValidationError{Field: "correct_answer", Message: "must be one of the options", Value: req.CorrectAnswer, Rule: "business_logic"})
		}
	case models.TrueFalse:
		if answer := strings.ToLower(req.CorrectAnswer); answer != "true" && answer != "false" {
			errors = append(errors, ValidationError{Field: "correct_answer", Message: "must be true or false", Value: req.CorrectAnswer, Rule: "business_logic"})
		}
	}

	for i, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("tags[%d]", i), Message: "tag cannot be empty", Value: tag, Rule: "business_logic"})
		}
	}
	return errors
}

// ValidateLevelTable checks that xp thresholds never decrease as the ordinal grows
// and that the lowest level starts at 0 xp.
func (bv *BusinessValidator) ValidateLevelTable(levels []*models.Level) ValidationErrors {
	var errors ValidationErrors
	if len(levels) == 0 {
		return errors
	}

	if levels[0].XPRequired != 0 {
		errors = append(errors, ValidationError{Field: "xp_required", Message: "lowest level must require 0 xp", Value: levels[0].XPRequired, Rule: "level_table"})
	}

	for i := 1; i < len(levels); i++ {
		if levels[i].XPRequired < levels[i-1].XPRequired {
			errors = append(errors, ValidationError{
				Field:   "xp_required",
				Message: fmt.Sprintf("level %d requires less xp than level %d", levels[i].Level, levels[i-1].Level),
				Value:   levels[i].XPRequired,
				Rule:    "level_table",
			})
		}
	}
	return errors
}

func (bv *BusinessValidator) registerBusinessRules() {
	// Challenge duration in days
	bv.validate.RegisterValidation("challenge_duration", func(fl validator.FieldLevel) bool {
		days := fl.Field().Int()
		return days >= MinChallengeDuration && days <= MaxChallengeDuration
	})

	// XP reward for challenges and badges
	bv.validate.RegisterValidation("xp_reward", func(fl validator.FieldLevel) bool {
		xp := fl.Field().Int()
		return xp >= MinXPReward && xp <= MaxXPReward
	})

	bv.validate.RegisterValidation("target_type", func(fl validator.FieldLevel) bool {
		return models.ChallengeTargetType(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("assignment_type", func(fl validator.FieldLevel) bool {
		return models.AssignmentType(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("grade_type", func(fl validator.FieldLevel) bool {
		switch models.GradeType(fl.Field().String()) {
		case models.GradeTugasHarian, models.GradeQuiz, models.GradeUlanganHarian, models.GradePTS,
			models.GradePAS, models.GradePraktik, models.GradeSikap, models.GradeKeterampilan:
			return true
		}
		return false
	})

	// NISN: national student number, 10 digits
	bv.validate.RegisterValidation("nisn", func(fl validator.FieldLevel) bool {
		return nisnPattern.MatchString(fl.Field().String())
	})

	// Academic year "YYYY/YYYY" with consecutive years
	bv.validate.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		m := academicYearPattern.FindStringSubmatch(fl.Field().String())
		if m == nil {
			return false
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return end == start+1
	})
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

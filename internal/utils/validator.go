package utils

import (
	"reflect"
	"strings"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.MultipleChoice,
		models.ShortText,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateSurveyType(fl validator.FieldLevel) bool {
	validTypes := []models.SurveyType{
		models.TypeSurvey,
		models.TypeAssessment,
		models.TypeQuiz,
		models.TypeIQ,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateSourceType(fl validator.FieldLevel) bool {
	validSources := []models.SourceType{
		models.SourceManual,
		models.SourceQuestionBank,
		models.SourceMultiQuestionBank,
		models.SourceManualSelection,
	}

	value := fl.Field().String()
	for _, validSource := range validSources {
		if string(validSource) == value {
			return true
		}
	}
	return false
}

func ValidateScoringMode(fl validator.FieldLevel) bool {
	validModes := []models.ScoringMode{
		models.ScoringPercentage,
		models.ScoringAccumulated,
	}

	value := fl.Field().String()
	for _, validMode := range validModes {
		if string(validMode) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("survey_type", ValidateSurveyType)
	validate.RegisterValidation("source_type", ValidateSourceType)
	validate.RegisterValidation("scoring_mode", ValidateScoringMode)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validator wraps the go-playground validator with our custom rules.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

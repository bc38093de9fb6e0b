package services

import "errors"

// ===== SERVICE ERRORS =====

var (
	ErrSurveyNotFound       = errors.New("survey not found")
	ErrQuestionBankNotFound = errors.New("question bank not found")
	ErrResponseNotFound     = errors.New("response not found")
	ErrSurveyHasNoQuestions = errors.New("survey has no questions")
	ErrValidationFailed     = errors.New("validation failed")
	ErrConflict             = errors.New("conflicting write for respondent")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSurveyNotFound) ||
		errors.Is(err, ErrQuestionBankNotFound) ||
		errors.Is(err, ErrResponseNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrSurveyHasNoQuestions)
}

func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

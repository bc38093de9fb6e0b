package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/formpulse/survey-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

// ResponseFilters narrows a survey's response set at read time. Name and
// Email are case-insensitive substring matches; the date range bounds
// CreatedAt inclusively. Completion status is not here on purpose: "has any
// non-empty answer" cannot be expressed as a stored-field predicate, so the
// statistics service applies it after fetching.
type ResponseFilters struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// SurveyRepository provides the survey reads the response engine needs.
// Survey authoring is handled elsewhere; this service only consumes
// definitions.
type SurveyRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Survey, error)
	GetBySlug(ctx context.Context, slug string) (*models.Survey, error)
}

// QuestionBankRepository provides question bank reads for resolution.
type QuestionBankRepository interface {
	GetByID(ctx context.Context, id uint) (*models.QuestionBank, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionBank, error)
}

// ResponseRepository stores and reads back submissions.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	Update(ctx context.Context, response *models.Response) error
	GetByID(ctx context.Context, id uint) (*models.Response, error)
	GetBySurveyAndEmail(ctx context.Context, surveyID uint, email string) (*models.Response, error)
	ListBySurvey(ctx context.Context, surveyID uint, filters ResponseFilters) ([]*models.Response, error)

	// Survey listing helpers.
	CountBySurvey(ctx context.Context, surveyID uint) (int64, error)
	LastResponseAt(ctx context.Context, surveyID uint) (*time.Time, error)
}

// Repository aggregates the per-entity repositories behind one dependency.
type Repository interface {
	Survey() SurveyRepository
	QuestionBank() QuestionBankRepository
	Response() ResponseRepository
}

// IsNotFoundError checks whether a repository error means the record does
// not exist, independent of the storage backend.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

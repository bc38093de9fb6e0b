package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

// MockSurveyRepository is a mock implementation of SurveyRepository
type MockSurveyRepository struct {
	mock.Mock
}

func (m *MockSurveyRepository) GetByID(ctx context.Context, id uint) (*models.Survey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Survey), args.Error(1)
}

func (m *MockSurveyRepository) GetBySlug(ctx context.Context, slug string) (*models.Survey, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Survey), args.Error(1)
}

// MockQuestionBankRepository is a mock implementation of QuestionBankRepository
type MockQuestionBankRepository struct {
	mock.Mock
}

func (m *MockQuestionBankRepository) GetByID(ctx context.Context, id uint) (*models.QuestionBank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionBank), args.Error(1)
}

func (m *MockQuestionBankRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionBank, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestionBank), args.Error(1)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) Update(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) GetBySurveyAndEmail(ctx context.Context, surveyID uint, email string) (*models.Response, error) {
	args := m.Called(ctx, surveyID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListBySurvey(ctx context.Context, surveyID uint, filters repositories.ResponseFilters) ([]*models.Response, error) {
	args := m.Called(ctx, surveyID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) CountBySurvey(ctx context.Context, surveyID uint) (int64, error) {
	args := m.Called(ctx, surveyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) LastResponseAt(ctx context.Context, surveyID uint) (*time.Time, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

type mockRepository struct {
	surveys   *MockSurveyRepository
	banks     *MockQuestionBankRepository
	responses *MockResponseRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		surveys:   new(MockSurveyRepository),
		banks:     new(MockQuestionBankRepository),
		responses: new(MockResponseRepository),
	}
}

func (r *mockRepository) Survey() repositories.SurveyRepository {
	return r.surveys
}

func (r *mockRepository) QuestionBank() repositories.QuestionBankRepository {
	return r.banks
}

func (r *mockRepository) Response() repositories.ResponseRepository {
	return r.responses
}

// ===== TEST FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustJSON(t *testing.T, value any) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return datatypes.JSON(data)
}

func quizQuestions() []models.Question {
	return []models.Question{
		{
			Text:          "Pick one",
			Type:          models.SingleChoice,
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: models.SingleKey(1),
			Points:        1,
		},
		{
			Text:          "Pick several",
			Type:          models.MultipleChoice,
			Options:       []string{"X", "Y", "Z"},
			CorrectAnswer: models.MultiKey(0, 2),
			Points:        2,
		},
	}
}

func quizSurvey(t *testing.T) *models.Survey {
	return &models.Survey{
		ID:         1,
		Title:      "General knowledge quiz",
		Type:       models.TypeQuiz,
		SourceType: models.SourceManual,
		Questions:  mustJSON(t, quizQuestions()),
	}
}

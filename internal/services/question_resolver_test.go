package services

import (
	"context"
	"testing"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolve_SnapshotsWinOverEverything(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	snapshots := []models.QuestionSnapshot{
		{QuestionIndex: 1, QuestionData: models.Question{Text: "second"}},
		{QuestionIndex: 0, QuestionData: models.Question{Text: "first"}},
	}
	existing := &models.Response{QuestionSnapshots: mustJSON(t, snapshots)}

	// The live survey points at a bank, but the snapshot must win without
	// touching it.
	bankID := uint(7)
	survey := &models.Survey{ID: 1, SourceType: models.SourceQuestionBank, QuestionBankID: &bankID}

	questions, err := resolver.Resolve(context.Background(), survey, existing)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "first", questions[0].Text)
	assert.Equal(t, "second", questions[1].Text)
	banks.AssertNotCalled(t, "GetByID")
}

func TestResolve_LegacySelectedQuestions(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	selected := []models.SelectedQuestion{
		{QuestionData: models.Question{Text: "from legacy selection"}},
	}
	existing := &models.Response{SelectedQuestions: mustJSON(t, selected)}

	bankID := uint(7)
	survey := &models.Survey{ID: 1, SourceType: models.SourceQuestionBank, QuestionBankID: &bankID}

	questions, err := resolver.Resolve(context.Background(), survey, existing)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "from legacy selection", questions[0].Text)
	banks.AssertNotCalled(t, "GetByID")
}

func TestResolve_QuestionBankSource(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	bankID := uint(7)
	bank := &models.QuestionBank{
		ID:        bankID,
		Questions: mustJSON(t, []models.Question{{Text: "bank question"}}),
	}
	banks.On("GetByID", mock.Anything, bankID).Return(bank, nil)

	survey := &models.Survey{ID: 1, SourceType: models.SourceQuestionBank, QuestionBankID: &bankID}

	questions, err := resolver.Resolve(context.Background(), survey, nil)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "bank question", questions[0].Text)
}

func TestResolve_MissingBankIsNotFound(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	bankID := uint(99)
	banks.On("GetByID", mock.Anything, bankID).Return(nil, gorm.ErrRecordNotFound)

	survey := &models.Survey{ID: 1, SourceType: models.SourceQuestionBank, QuestionBankID: &bankID}

	_, err := resolver.Resolve(context.Background(), survey, nil)
	assert.ErrorIs(t, err, ErrQuestionBankNotFound)
}

func TestResolve_MultiBankConcatenatesInConfigOrder(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	configs := []models.MultiBankConfig{
		{QuestionBankID: 2, QuestionCount: 1},
		{QuestionBankID: 1, QuestionCount: 1},
	}
	survey := &models.Survey{
		ID:                      1,
		SourceType:              models.SourceMultiQuestionBank,
		MultiQuestionBankConfig: mustJSON(t, configs),
	}

	// Repository returns banks in storage order; the resolver must reorder
	// to match the configuration.
	banks.On("GetByIDs", mock.Anything, []uint{2, 1}).Return([]*models.QuestionBank{
		{ID: 1, Questions: mustJSON(t, []models.Question{{Text: "from bank one"}})},
		{ID: 2, Questions: mustJSON(t, []models.Question{{Text: "from bank two"}})},
	}, nil)

	questions, err := resolver.Resolve(context.Background(), survey, nil)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "from bank two", questions[0].Text)
	assert.Equal(t, "from bank one", questions[1].Text)
}

func TestResolve_MultiBankSkipsStaleReference(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	configs := []models.MultiBankConfig{
		{QuestionBankID: 1, QuestionCount: 1},
		{QuestionBankID: 404, QuestionCount: 1},
	}
	survey := &models.Survey{
		ID:                      1,
		SourceType:              models.SourceMultiQuestionBank,
		MultiQuestionBankConfig: mustJSON(t, configs),
	}

	banks.On("GetByIDs", mock.Anything, []uint{1, 404}).Return([]*models.QuestionBank{
		{ID: 1, Questions: mustJSON(t, []models.Question{{Text: "survivor"}})},
	}, nil)

	questions, err := resolver.Resolve(context.Background(), survey, nil)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "survivor", questions[0].Text)
}

func TestResolve_ManualUsesInlineQuestions(t *testing.T) {
	banks := new(MockQuestionBankRepository)
	resolver := NewQuestionResolver(banks, testLogger())

	survey := quizSurvey(t)

	questions, err := resolver.Resolve(context.Background(), survey, nil)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Pick one", questions[0].Text)
}

func TestBuildQuestionSnapshots_IncludesUnanswered(t *testing.T) {
	questions := quizQuestions()
	positional := []models.AnswerValue{models.TextAnswer("B")}

	snapshots := BuildQuestionSnapshots(questions, positional)

	require.Len(t, snapshots, 2)
	assert.Equal(t, 0, snapshots[0].QuestionIndex)
	assert.Equal(t, models.TextAnswer("B"), snapshots[0].UserAnswer)
	assert.Equal(t, 1, snapshots[1].QuestionIndex)
	assert.True(t, snapshots[1].UserAnswer.IsNone())
}

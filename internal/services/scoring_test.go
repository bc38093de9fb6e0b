package services

import (
	"encoding/json"
	"testing"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateScore_AllCorrect(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		0: models.IndexAnswer(1),
		1: models.IndexSetAnswer(0, 2),
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})

	assert.Equal(t, 3, score.MaxPossiblePoints)
	assert.Equal(t, 3, score.TotalPoints)
	assert.Equal(t, 2, score.CorrectAnswers)
	assert.Equal(t, 0, score.WrongAnswers)
	assert.Equal(t, 100.0, score.Percentage)
	assert.True(t, score.Passed)
	assert.Equal(t, 100.0, score.DisplayScore)
}

func TestCalculateScore_PartialMultipleChoiceIsWrong(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		0: models.IndexAnswer(1),
		1: models.IndexSetAnswer(0), // subset of the correct set
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})

	assert.Equal(t, 1, score.TotalPoints)
	assert.Equal(t, 1, score.CorrectAnswers)
	assert.Equal(t, 1, score.WrongAnswers)
	assert.Equal(t, 33.33, score.Percentage)
	assert.False(t, score.Passed)
}

func TestCalculateScore_MultipleChoiceOrderIrrelevant(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		1: models.IndexSetAnswer(2, 0),
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})
	assert.Equal(t, 2, score.TotalPoints)
}

func TestCalculateScore_UnansweredGradableCountsWrong(t *testing.T) {
	questions := quizQuestions()

	score := CalculateScore(questions, nil, models.ScoringSettings{})

	assert.Equal(t, 0, score.TotalPoints)
	assert.Equal(t, 0, score.CorrectAnswers)
	assert.Equal(t, 2, score.WrongAnswers)
	assert.Equal(t, 0.0, score.Percentage)
	assert.False(t, score.Passed)
}

func TestCalculateScore_MissingAnswerNeverMatchesOptionZero(t *testing.T) {
	questions := []models.Question{
		{
			Text:          "Pick the first",
			Type:          models.SingleChoice,
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: models.SingleKey(0),
			Points:        1,
		},
	}

	// No entry at all must not grade as option 0.
	score := CalculateScore(questions, nil, models.ScoringSettings{})
	assert.Equal(t, 0, score.TotalPoints)
	assert.Equal(t, 0, score.CorrectAnswers)
	assert.Equal(t, 1, score.WrongAnswers)
	assert.False(t, score.Passed)

	// Same through normalization: an unresolvable value is dropped, not
	// turned into index 0.
	normalized := NormalizeAnswers(json.RawMessage(`["bogus"]`), questions)
	score = CalculateScore(questions, normalized.ByIndex, models.ScoringSettings{})
	assert.Equal(t, 0, score.TotalPoints)
	assert.Equal(t, 1, score.WrongAnswers)
	assert.False(t, score.Passed)
}

func TestCalculateScore_ZeroGradablePoints(t *testing.T) {
	questions := []models.Question{
		{Text: "Feedback", Type: models.ShortText},
		{Text: "More feedback", Type: models.ShortText},
	}

	score := CalculateScore(questions, nil, models.ScoringSettings{})

	assert.Equal(t, 0, score.MaxPossiblePoints)
	assert.Equal(t, 0.0, score.Percentage)
	assert.False(t, score.Passed)
	assert.Equal(t, 0, score.WrongAnswers)
}

func TestCalculateScore_EmptyMultipleChoiceKeyIsUngradable(t *testing.T) {
	questions := []models.Question{
		{
			Text:          "Misconfigured",
			Type:          models.MultipleChoice,
			Options:       []string{"X", "Y"},
			CorrectAnswer: models.MultiKey(),
			Points:        5,
		},
		{
			Text:          "Fine",
			Type:          models.SingleChoice,
			Options:       []string{"A", "B"},
			CorrectAnswer: models.SingleKey(0),
			Points:        1,
		},
	}
	answers := map[int]models.CanonicalAnswer{
		1: models.IndexAnswer(0),
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})

	// The misconfigured question is excluded from both the tally and the
	// maximum, so the remaining question alone decides the score.
	assert.Equal(t, 1, score.MaxPossiblePoints)
	assert.Equal(t, 1, score.TotalPoints)
	assert.Equal(t, 100.0, score.Percentage)
}

func TestCalculateScore_ShortTextTrimmedMatch(t *testing.T) {
	questions := []models.Question{
		{Text: "Capital of France?", Type: models.ShortText, CorrectAnswer: models.TextKey("Paris ")},
	}
	answers := map[int]models.CanonicalAnswer{
		0: models.CanonicalTextAnswer("  Paris"),
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})

	assert.Equal(t, 1, score.MaxPossiblePoints)
	assert.Equal(t, 1, score.CorrectAnswers)
}

func TestCalculateScore_AccumulatedDisplayScore(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		1: models.IndexSetAnswer(0, 2),
	}
	settings := models.ScoringSettings{ScoringMode: models.ScoringAccumulated, PassingThreshold: 50}

	score := CalculateScore(questions, answers, settings)

	assert.Equal(t, models.ScoringAccumulated, score.ScoringMode)
	assert.Equal(t, 2.0, score.DisplayScore)
	assert.Equal(t, 66.67, score.Percentage)
	// The threshold compares against the percentage even in accumulated mode.
	assert.True(t, score.Passed)
}

func TestCalculateScore_ThresholdDefaultsTo60(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		1: models.IndexSetAnswer(0, 2), // 2 of 3 points, 66.67%
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})
	assert.True(t, score.Passed)

	answers = map[int]models.CanonicalAnswer{
		0: models.IndexAnswer(1), // 1 of 3 points, 33.33%
	}
	score = CalculateScore(questions, answers, models.ScoringSettings{})
	assert.False(t, score.Passed)
}

func TestCalculateScore_BreakdownDetails(t *testing.T) {
	questions := quizQuestions()
	answers := map[int]models.CanonicalAnswer{
		0: models.IndexAnswer(1),
	}

	score := CalculateScore(questions, answers, models.ScoringSettings{})

	details, err := score.QuestionScores()
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.True(t, details[0].IsCorrect)
	assert.Equal(t, 1, details[0].PointsAwarded)
	assert.False(t, details[1].IsCorrect)
	assert.Equal(t, 0, details[1].PointsAwarded)
	assert.Equal(t, 2, details[1].MaxPoints)
}

func TestFormattedScore(t *testing.T) {
	percentage := models.ResponseScore{DisplayScore: 66.67, ScoringMode: models.ScoringPercentage}
	assert.Equal(t, "66.67分 (66.67%)", percentage.FormattedScore())

	accumulated := models.ResponseScore{DisplayScore: 2, MaxPossiblePoints: 3, ScoringMode: models.ScoringAccumulated}
	assert.Equal(t, "2分 (满分3分)", accumulated.FormattedScore())
}

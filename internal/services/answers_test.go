package services

import (
	"encoding/json"
	"testing"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnswers_PositionalArray(t *testing.T) {
	questions := quizQuestions()
	payload := json.RawMessage(`["B", ["X", "Z"]]`)

	normalized := NormalizeAnswers(payload, questions)

	require.Len(t, normalized.Positional, 2)
	assert.Equal(t, models.IndexAnswer(1), normalized.ByIndex[0])
	assert.Equal(t, models.IndexSetAnswer(0, 2), normalized.ByIndex[1])
	assert.Equal(t, models.TextAnswer("B"), normalized.Positional[0])
	assert.Equal(t, models.ListAnswer("X", "Z"), normalized.Positional[1])
}

func TestNormalizeAnswers_ObjectKeyedByIndex(t *testing.T) {
	questions := quizQuestions()
	payload := json.RawMessage(`{"0": "C", "1": ["Y"]}`)

	normalized := NormalizeAnswers(payload, questions)

	assert.Equal(t, models.IndexAnswer(2), normalized.ByIndex[0])
	assert.Equal(t, models.IndexSetAnswer(1), normalized.ByIndex[1])
}

func TestNormalizeAnswers_ObjectKeyedByIDAndText(t *testing.T) {
	questions := quizQuestions()
	questions[0].ID = "q-legacy-1"
	payload := json.RawMessage(`{"q-legacy-1": "A", "Pick several": ["Z"]}`)

	normalized := NormalizeAnswers(payload, questions)

	assert.Equal(t, models.IndexAnswer(0), normalized.ByIndex[0])
	assert.Equal(t, models.IndexSetAnswer(2), normalized.ByIndex[1])
}

func TestNormalizeAnswers_Idempotent(t *testing.T) {
	questions := quizQuestions()
	first := NormalizeAnswers(json.RawMessage(`["B", ["X", "Z"]]`), questions)

	doc, err := first.Document()
	require.NoError(t, err)
	second := NormalizeAnswers(doc, questions)

	assert.Equal(t, first.ByIndex, second.ByIndex)
}

func TestNormalizeAnswers_EmptyValuesAreUnanswered(t *testing.T) {
	questions := quizQuestions()
	payload := json.RawMessage(`["", null]`)

	normalized := NormalizeAnswers(payload, questions)

	assert.Empty(t, normalized.ByIndex)
	require.Len(t, normalized.Positional, 2)
	assert.True(t, normalized.Positional[0].IsNone())
	assert.True(t, normalized.Positional[1].IsNone())
}

func TestNormalizeAnswers_UnresolvableSingleChoiceDropped(t *testing.T) {
	questions := quizQuestions()
	payload := json.RawMessage(`["no such option", ["X", "bogus", "Z"]]`)

	normalized := NormalizeAnswers(payload, questions)

	// The single-choice answer is dropped from the canonical mapping but the
	// raw value survives for the snapshot.
	_, found := normalized.ByIndex[0]
	assert.False(t, found)
	assert.Equal(t, models.TextAnswer("no such option"), normalized.Positional[0])

	// Multi-choice drops only the element that matched nothing.
	assert.Equal(t, models.IndexSetAnswer(0, 2), normalized.ByIndex[1])
	assert.Equal(t, models.ListAnswer("X", "Z"), normalized.Positional[1])
}

func TestNormalizeAnswers_ShortTextKeepsRawString(t *testing.T) {
	questions := []models.Question{
		{Text: "Your thoughts", Type: models.ShortText},
	}
	normalized := NormalizeAnswers(json.RawMessage(`["free form text"]`), questions)

	assert.Equal(t, models.CanonicalTextAnswer("free form text"), normalized.ByIndex[0])
}

func TestMatchOptionIndex_FallbackStrategies(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		answer  string
		want    int
		ok      bool
	}{
		{"exact match", []string{"A", "B"}, "B", 1, true},
		{"json object option", []string{`{"text":"Yes"}`, `{"text":"No"}`}, "No", 1, true},
		{"serialized object option", []string{"{ text: 'Maybe' }"}, "Maybe", 0, true},
		{"no match", []string{"A", "B"}, "Q", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := matchOptionIndex(tt.options, tt.answer)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, index)
			}
		})
	}
}

func TestMatchOptionIndex_ExactBeatsFallback(t *testing.T) {
	// An option whose literal text equals the answer wins over an earlier
	// option whose embedded text would also match.
	options := []string{`{"text":"B"}`, "B"}
	index, ok := matchOptionIndex(options, "B")
	require.True(t, ok)
	assert.Equal(t, 1, index)
}

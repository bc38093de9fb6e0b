package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	ShortText      QuestionType = "short_text"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Question is the unit stored inside Survey.Questions and
// QuestionBank.Questions JSONB documents. It is a value type: responses copy
// it into snapshots at submission time and never reference it back.
type Question struct {
	// ID carries the legacy document id when one exists; statistics still
	// look answers up by it for old responses.
	ID            string          `json:"id,omitempty"`
	Text          string          `json:"text" validate:"required"`
	Type          QuestionType    `json:"type" validate:"omitempty,question_type"`
	Options       []string        `json:"options,omitempty" validate:"omitempty,min=2"`
	CorrectAnswer *AnswerKey      `json:"correctAnswer,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	Points        int             `json:"points,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Difficulty    DifficultyLevel `json:"difficulty,omitempty"`
}

// PointsValue returns the question weight, defaulting to 1 when unset.
func (q Question) PointsValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// TypeValue defaults untyped legacy questions to single choice.
func (q Question) TypeValue() QuestionType {
	if q.Type == "" {
		return SingleChoice
	}
	return q.Type
}

type AnswerKeyKind int

const (
	KeyNone AnswerKeyKind = iota
	KeySingle
	KeyMulti
	KeyText
)

// AnswerKey is the polymorphic correctAnswer field: a single option index
// for single choice, an index set for multiple choice, or a reference string
// for short text. The JSON wire shape is the bare value (number, number
// array, or string), matching the stored documents.
type AnswerKey struct {
	Kind    AnswerKeyKind
	Single  int
	Indices []int
	Text    string
}

func SingleKey(index int) *AnswerKey {
	return &AnswerKey{Kind: KeySingle, Single: index}
}

func MultiKey(indices ...int) *AnswerKey {
	return &AnswerKey{Kind: KeyMulti, Indices: indices}
}

func TextKey(text string) *AnswerKey {
	return &AnswerKey{Kind: KeyText, Text: text}
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	switch k.Kind {
	case KeySingle:
		return json.Marshal(k.Single)
	case KeyMulti:
		return json.Marshal(k.Indices)
	case KeyText:
		return json.Marshal(k.Text)
	default:
		return []byte("null"), nil
	}
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var single float64
	if err := json.Unmarshal(data, &single); err == nil {
		*k = AnswerKey{Kind: KeySingle, Single: int(single)}
		return nil
	}

	var indices []float64
	if err := json.Unmarshal(data, &indices); err == nil {
		key := AnswerKey{Kind: KeyMulti, Indices: make([]int, len(indices))}
		for i, v := range indices {
			key.Indices[i] = int(v)
		}
		*k = key
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*k = AnswerKey{Kind: KeyText, Text: text}
		return nil
	}

	if string(data) == "null" {
		*k = AnswerKey{Kind: KeyNone}
		return nil
	}

	return fmt.Errorf("answer key: unsupported value %s", data)
}

// QuestionBank is an independently owned pool of questions. Surveys hold a
// reference to it, never a copy, which is why responses snapshot questions
// at submission time.
type QuestionBank struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string        `json:"description" gorm:"type:text"`
	Questions   datatypes.JSON `json:"questions" gorm:"type:jsonb"` // []Question
	CreatedBy   string         `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}

// QuestionList decodes the JSONB question document.
func (b *QuestionBank) QuestionList() ([]Question, error) {
	if len(b.Questions) == 0 {
		return nil, nil
	}
	var questions []Question
	if err := json.Unmarshal(b.Questions, &questions); err != nil {
		return nil, fmt.Errorf("question bank %d: decode questions: %w", b.ID, err)
	}
	return questions, nil
}

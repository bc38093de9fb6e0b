package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
)

type AnswerValueKind int

const (
	AnswerNone AnswerValueKind = iota
	AnswerText
	AnswerList
)

// AnswerValue is the raw value a respondent submitted for one question:
// nothing, a single string, or a list of strings. It is the only answer
// shape allowed past the normalization boundary.
type AnswerValue struct {
	Kind AnswerValueKind
	Text string
	List []string
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerText, Text: text}
}

func ListAnswer(values ...string) AnswerValue {
	return AnswerValue{Kind: AnswerList, List: values}
}

func (v AnswerValue) IsNone() bool {
	return v.Kind == AnswerNone
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerText:
		return json.Marshal(v.Text)
	case AnswerList:
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = AnswerValue{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = TextAnswer(text)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = ListAnswer(list...)
		return nil
	}

	return fmt.Errorf("answer value: unsupported value %s", data)
}

type CanonicalKind int

const (
	CanonicalUnanswered CanonicalKind = iota
	CanonicalIndex
	CanonicalIndexSet
	CanonicalText
)

// CanonicalAnswer is the normalized stored form of one answer: an option
// index for single choice, an index set for multiple choice, or the raw
// string for short text. The JSON wire shape is the bare value, matching
// the historical answers document.
type CanonicalAnswer struct {
	Kind    CanonicalKind
	Index   int
	Indices []int
	Text    string
}

func IndexAnswer(index int) CanonicalAnswer {
	return CanonicalAnswer{Kind: CanonicalIndex, Index: index}
}

func IndexSetAnswer(indices ...int) CanonicalAnswer {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	return CanonicalAnswer{Kind: CanonicalIndexSet, Indices: sorted}
}

func CanonicalTextAnswer(text string) CanonicalAnswer {
	return CanonicalAnswer{Kind: CanonicalText, Text: text}
}

func (a CanonicalAnswer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case CanonicalIndex:
		return json.Marshal(a.Index)
	case CanonicalIndexSet:
		return json.Marshal(a.Indices)
	case CanonicalText:
		return json.Marshal(a.Text)
	default:
		return []byte("null"), nil
	}
}

// QuestionSnapshot freezes the exact question a respondent saw, together
// with the raw answer they gave. Once written it is the sole record of what
// was asked and answered, even if the live survey later diverges.
type QuestionSnapshot struct {
	QuestionIndex int         `json:"questionIndex"`
	QuestionData  Question    `json:"questionData"`
	UserAnswer    AnswerValue `json:"userAnswer"`
}

// SelectedQuestion is the legacy pre-snapshot record used by question-bank
// surveys; it only survives in old response rows.
type SelectedQuestion struct {
	OriginalQuestionID string   `json:"originalQuestionId,omitempty"`
	QuestionIndex      int      `json:"questionIndex,omitempty"`
	QuestionData       Question `json:"questionData"`
}

// QuestionScore is the per-question line of the scoring breakdown.
type QuestionScore struct {
	QuestionIndex int  `json:"questionIndex"`
	PointsAwarded int  `json:"pointsAwarded"`
	MaxPoints     int  `json:"maxPoints"`
	IsCorrect     bool `json:"isCorrect"`
}

// ResponseScore is the computed score attached to a scored submission.
type ResponseScore struct {
	TotalPoints       int            `json:"totalPoints"`
	CorrectAnswers    int            `json:"correctAnswers"`
	WrongAnswers      int            `json:"wrongAnswers"`
	Percentage        float64        `json:"percentage"`
	Passed            bool           `json:"passed"`
	ScoringMode       ScoringMode    `json:"scoringMode" gorm:"size:20"`
	MaxPossiblePoints int            `json:"maxPossiblePoints"`
	DisplayScore      float64        `json:"displayScore"`
	ScoringDetails    datatypes.JSON `json:"scoringDetails,omitempty" gorm:"type:jsonb;column:score_details"` // []QuestionScore
}

// QuestionScores decodes the per-question breakdown.
func (s ResponseScore) QuestionScores() ([]QuestionScore, error) {
	if len(s.ScoringDetails) == 0 {
		return nil, nil
	}
	var scores []QuestionScore
	if err := json.Unmarshal(s.ScoringDetails, &scores); err != nil {
		return nil, fmt.Errorf("decode scoring details: %w", err)
	}
	return scores, nil
}

// FormattedScore renders the score the way the respondent-facing UI shows
// it: percentage mode as "N分 (N%)", accumulated mode as "N分 (满分M分)".
func (s ResponseScore) FormattedScore() string {
	if s.ScoringMode == ScoringAccumulated {
		return fmt.Sprintf("%v分 (满分%d分)", s.DisplayScore, s.MaxPossiblePoints)
	}
	return fmt.Sprintf("%v分 (%v%%)", s.DisplayScore, s.DisplayScore)
}

// ResponseMetadata captures device and network context at submission time.
type ResponseMetadata struct {
	UserAgent  string `json:"userAgent,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`
	DeviceType string `json:"deviceType,omitempty"`
}

// Response is one respondent's submission for a survey.
//
// Answers holds the canonical index-keyed document for rows written by this
// service; rows written by earlier versions of the product may instead hold
// a positional array or an object keyed by question id or question text.
// Readers must go through the answer lookup strategies in the statistics
// service rather than assuming one shape.
type Response struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	SurveyID uint   `json:"survey_id" gorm:"not null;index;index:idx_responses_survey_email"`
	Name     string `json:"name" gorm:"not null;size:200"`
	Email    string `json:"email" gorm:"not null;size:255;index:idx_responses_survey_email"`

	Answers           datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	QuestionSnapshots datatypes.JSON `json:"question_snapshots" gorm:"type:jsonb"` // []QuestionSnapshot
	SelectedQuestions datatypes.JSON `json:"selected_questions" gorm:"type:jsonb"` // []SelectedQuestion, legacy

	Score ResponseScore `json:"score" gorm:"embedded;embeddedPrefix:score_"`

	TimeSpent    int            `json:"time_spent" gorm:"default:0"` // seconds
	IsAutoSubmit bool           `json:"is_auto_submit" gorm:"default:false"`
	Metadata     datatypes.JSON `json:"metadata" gorm:"type:jsonb"` // ResponseMetadata

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Response) TableName() string {
	return "responses"
}

// SnapshotList decodes the snapshot document, ordered by question index.
func (r *Response) SnapshotList() ([]QuestionSnapshot, error) {
	if len(r.QuestionSnapshots) == 0 {
		return nil, nil
	}
	var snapshots []QuestionSnapshot
	if err := json.Unmarshal(r.QuestionSnapshots, &snapshots); err != nil {
		return nil, fmt.Errorf("response %d: decode snapshots: %w", r.ID, err)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].QuestionIndex < snapshots[j].QuestionIndex
	})
	return snapshots, nil
}

// HasSnapshots reports whether this response carries a snapshot record.
func (r *Response) HasSnapshots() bool {
	snapshots, err := r.SnapshotList()
	return err == nil && len(snapshots) > 0
}

// SelectedQuestionList decodes the legacy selected-question document.
func (r *Response) SelectedQuestionList() ([]SelectedQuestion, error) {
	if len(r.SelectedQuestions) == 0 {
		return nil, nil
	}
	var selected []SelectedQuestion
	if err := json.Unmarshal(r.SelectedQuestions, &selected); err != nil {
		return nil, fmt.Errorf("response %d: decode selected questions: %w", r.ID, err)
	}
	return selected, nil
}

// AnswersDocument decodes the answers column into its generic JSON form:
// []any for positional rows, map[string]any for keyed rows, nil when empty.
func (r *Response) AnswersDocument() any {
	if len(r.Answers) == 0 {
		return nil
	}
	var doc any
	if err := json.Unmarshal(r.Answers, &doc); err != nil {
		return nil
	}
	return doc
}

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SurveyType string

const (
	TypeSurvey     SurveyType = "survey"
	TypeAssessment SurveyType = "assessment"
	TypeQuiz       SurveyType = "quiz"
	TypeIQ         SurveyType = "iq"
)

type SurveyStatus string

const (
	SurveyDraft  SurveyStatus = "draft"
	SurveyActive SurveyStatus = "active"
	SurveyClosed SurveyStatus = "closed"
)

type SourceType string

const (
	SourceManual            SourceType = "manual"
	SourceQuestionBank      SourceType = "question_bank"
	SourceMultiQuestionBank SourceType = "multi_question_bank"
	SourceManualSelection   SourceType = "manual_selection"
)

type ScoringMode string

const (
	ScoringPercentage  ScoringMode = "percentage"
	ScoringAccumulated ScoringMode = "accumulated"
)

// DefaultPassingThreshold applies when a scored survey never configured one.
const DefaultPassingThreshold = 60.0

// ScoringSettings configures how scored survey types grade submissions.
// PassingThreshold is always a percentage, regardless of ScoringMode: pass or
// fail is a normalized notion even when the display score is raw points.
type ScoringSettings struct {
	ScoringMode        ScoringMode    `json:"scoringMode,omitempty" validate:"omitempty,scoring_mode"`
	PassingThreshold   float64        `json:"passingThreshold,omitempty" validate:"omitempty,min=0,max=100"`
	ShowScore          bool           `json:"showScore,omitempty"`
	ShowCorrectAnswers bool           `json:"showCorrectAnswers,omitempty"`
	ShowScoreBreakdown bool           `json:"showScoreBreakdown,omitempty"`
	CustomScoringRules map[string]any `json:"customScoringRules,omitempty"`
}

// ModeValue defaults to percentage scoring.
func (s ScoringSettings) ModeValue() ScoringMode {
	if s.ScoringMode == "" {
		return ScoringPercentage
	}
	return s.ScoringMode
}

// ThresholdValue defaults to DefaultPassingThreshold when unset or zero,
// which mirrors how historical settings documents behaved.
func (s ScoringSettings) ThresholdValue() float64 {
	if s.PassingThreshold <= 0 {
		return DefaultPassingThreshold
	}
	return s.PassingThreshold
}

// BankFilters narrows which questions a multi-bank survey draws from a bank.
type BankFilters struct {
	Tags          []string       `json:"tags,omitempty"`
	Difficulty    string         `json:"difficulty,omitempty"`
	QuestionTypes []QuestionType `json:"questionTypes,omitempty"`
}

// MultiBankConfig is one entry of a multi_question_bank survey configuration.
type MultiBankConfig struct {
	QuestionBankID uint         `json:"questionBankId" validate:"required"`
	QuestionCount  int          `json:"questionCount" validate:"min=1"`
	Filters        *BankFilters `json:"filters,omitempty"`
}

type Survey struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text"`
	Slug        string       `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Type        SurveyType   `json:"type" gorm:"default:survey;index" validate:"omitempty,survey_type"`
	SourceType  SourceType   `json:"source_type" gorm:"default:manual" validate:"omitempty,source_type"`
	Status      SurveyStatus `json:"status" gorm:"default:draft;index"`
	IsActive    bool         `json:"is_active" gorm:"default:false"`

	// Question sourcing. Questions holds the inline list for manual surveys;
	// bank-sourced surveys reference pools instead.
	Questions               datatypes.JSON `json:"questions" gorm:"type:jsonb"`                  // []Question
	QuestionBankID          *uint          `json:"question_bank_id" gorm:"index"`                // single bank reference
	QuestionCount           int            `json:"question_count" gorm:"default:0"`              // draw size for bank-sourced surveys
	MultiQuestionBankConfig datatypes.JSON `json:"multi_question_bank_config" gorm:"type:jsonb"` // []MultiBankConfig

	ScoringSettings datatypes.JSON `json:"scoring_settings" gorm:"type:jsonb"` // ScoringSettings

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Survey) TableName() string {
	return "surveys"
}

// RequiresAnswers reports whether this survey type grades submissions. Plain
// surveys never require a correct answer on their questions.
func (s *Survey) RequiresAnswers() bool {
	switch s.Type {
	case TypeAssessment, TypeQuiz, TypeIQ:
		return true
	default:
		return false
	}
}

// QuestionList decodes the inline question document.
func (s *Survey) QuestionList() ([]Question, error) {
	if len(s.Questions) == 0 {
		return nil, nil
	}
	var questions []Question
	if err := json.Unmarshal(s.Questions, &questions); err != nil {
		return nil, fmt.Errorf("survey %d: decode questions: %w", s.ID, err)
	}
	return questions, nil
}

// MultiBankConfigs decodes the multi-bank configuration document.
func (s *Survey) MultiBankConfigs() ([]MultiBankConfig, error) {
	if len(s.MultiQuestionBankConfig) == 0 {
		return nil, nil
	}
	var configs []MultiBankConfig
	if err := json.Unmarshal(s.MultiQuestionBankConfig, &configs); err != nil {
		return nil, fmt.Errorf("survey %d: decode multi bank config: %w", s.ID, err)
	}
	return configs, nil
}

// Scoring decodes the scoring settings document, returning zero-value
// settings (and therefore the defaults) when none were stored.
func (s *Survey) Scoring() ScoringSettings {
	var settings ScoringSettings
	if len(s.ScoringSettings) > 0 {
		// A malformed settings document falls back to defaults rather than
		// failing the whole scoring pass.
		_ = json.Unmarshal(s.ScoringSettings, &settings)
	}
	return settings
}

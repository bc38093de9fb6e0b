package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/formpulse/survey-service/internal/events"
	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"github.com/formpulse/survey-service/internal/utils"
)

// ===== REQUEST / RESPONSE DTOS =====

// SubmitResponseRequest is one respondent submission. Answers carries the raw
// payload exactly as the client sent it; the engine normalizes it against the
// resolved question list.
type SubmitResponseRequest struct {
	SurveyID     uint                     `json:"survey_id" validate:"required"`
	Name         string                   `json:"name" validate:"required,min=1,max=200"`
	Email        string                   `json:"email" validate:"required,email"`
	Answers      json.RawMessage          `json:"answers"`
	TimeSpent    int                      `json:"time_spent" validate:"omitempty,min=0"`
	IsAutoSubmit bool                     `json:"is_auto_submit"`
	Metadata     *models.ResponseMetadata `json:"metadata,omitempty"`
}

// ScoreView is the score shape returned to callers, including the formatted
// display string.
type ScoreView struct {
	TotalPoints       int                `json:"total_points"`
	MaxPossiblePoints int                `json:"max_possible_points"`
	CorrectAnswers    int                `json:"correct_answers"`
	WrongAnswers      int                `json:"wrong_answers"`
	Percentage        float64            `json:"percentage"`
	DisplayScore      float64            `json:"display_score"`
	ScoringMode       models.ScoringMode `json:"scoring_mode"`
	Passed            bool               `json:"passed"`
	FormattedScore    string             `json:"formatted_score"`
}

// SubmitResponseResult reports what the engine stored. Score is only set for
// scored survey types.
type SubmitResponseResult struct {
	Response *models.Response `json:"response"`
	Created  bool             `json:"created"`
	Score    *ScoreView       `json:"score,omitempty"`
}

type CompletionStatus string

const (
	CompletionAny        CompletionStatus = ""
	CompletionCompleted  CompletionStatus = "completed"
	CompletionIncomplete CompletionStatus = "incomplete"
)

// StatisticsFilters narrows the response set a report is computed over.
// Status is applied after the fetch because completion depends on answer
// content, not on a stored field.
type StatisticsFilters struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	DateFrom *time.Time       `json:"date_from"`
	DateTo   *time.Time       `json:"date_to"`
	Status   CompletionStatus `json:"status" validate:"omitempty,oneof=completed incomplete"`
}

// QuestionStat is the per-question tally of the aggregated report. Options
// maps option text to selection count; every option of the question appears,
// zero counts included.
type QuestionStat struct {
	Question string         `json:"question"`
	Options  map[string]int `json:"options"`
}

// UserResponseView is one respondent's row of the report. Answers maps
// question text to the formatted display answer, "No answer" when missing.
type UserResponseView struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Answers      map[string]string `json:"answers"`
	Score        *ScoreView        `json:"score,omitempty"`
	TimeSpent    int               `json:"time_spent"`
	IsAutoSubmit bool              `json:"is_auto_submit"`
	CreatedAt    time.Time         `json:"created_at"`
}

type StatisticsSummary struct {
	TotalResponses int     `json:"total_responses"`
	CompletionRate float64 `json:"completion_rate"`
	TotalQuestions int     `json:"total_questions"`
}

// SurveyStatistics is the full aggregated report for one survey.
type SurveyStatistics struct {
	AggregatedStats []QuestionStat     `json:"aggregated_stats"`
	UserResponses   []UserResponseView `json:"user_responses"`
	Summary         StatisticsSummary  `json:"summary"`
}

// ===== SERVICE INTERFACES =====

// ResponseSummary is the lightweight per-survey listing row: how many
// responses exist and when the latest arrived.
type ResponseSummary struct {
	SurveyID       uint       `json:"survey_id"`
	TotalResponses int64      `json:"total_responses"`
	LastResponseAt *time.Time `json:"last_response_at,omitempty"`
}

// ResponseService ingests, scores, and reads back survey submissions.
type ResponseService interface {
	Submit(ctx context.Context, req *SubmitResponseRequest) (*SubmitResponseResult, error)
	SubmitBySlug(ctx context.Context, slug string, req *SubmitResponseRequest) (*SubmitResponseResult, error)
	GetByID(ctx context.Context, id uint) (*models.Response, error)
	ListBySurvey(ctx context.Context, surveyID uint, filters repositories.ResponseFilters) ([]*models.Response, error)
	SummaryBySurvey(ctx context.Context, surveyID uint) (*ResponseSummary, error)
}

// StatisticsService computes aggregated reports over stored responses.
type StatisticsService interface {
	SurveyStatistics(ctx context.Context, surveyID uint, filters StatisticsFilters) (*SurveyStatistics, error)
}

// ExportService renders a statistics report as a downloadable workbook.
type ExportService interface {
	ExportStatistics(ctx context.Context, surveyID uint, filters StatisticsFilters) ([]byte, error)
}

// ServiceManager aggregates the services behind one dependency.
type ServiceManager interface {
	Response() ResponseService
	Statistics() StatisticsService
	Export() ExportService
}

type serviceManager struct {
	response   ResponseService
	statistics StatisticsService
	export     ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	validator *utils.Validator,
	logger *slog.Logger,
) ServiceManager {
	resolver := NewQuestionResolver(repo.QuestionBank(), logger)
	statistics := NewStatisticsService(repo, resolver, logger)

	return &serviceManager{
		response:   NewResponseService(repo, resolver, publisher, validator, logger),
		statistics: statistics,
		export:     NewExportService(repo.Survey(), statistics, logger),
	}
}

func (m *serviceManager) Response() ResponseService     { return m.response }
func (m *serviceManager) Statistics() StatisticsService { return m.statistics }
func (m *serviceManager) Export() ExportService         { return m.export }

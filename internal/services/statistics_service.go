package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
)

// NoAnswerSentinel is the uniform display value for a missing or
// unresolvable answer. The UI renders it verbatim; it is never an empty
// string or null.
const NoAnswerSentinel = "No answer"

// ===== STATISTICS =====

type statisticsService struct {
	repo     repositories.Repository
	resolver *QuestionResolver
	logger   *slog.Logger
}

func NewStatisticsService(repo repositories.Repository, resolver *QuestionResolver, logger *slog.Logger) StatisticsService {
	return &statisticsService{repo: repo, resolver: resolver, logger: logger}
}

// SurveyStatistics re-derives the aggregated report from stored responses.
// It is a pure read-side fold: running it twice over the same rows yields
// identical output.
func (s *statisticsService) SurveyStatistics(ctx context.Context, surveyID uint, filters StatisticsFilters) (*SurveyStatistics, error) {
	survey, err := s.repo.Survey().GetByID(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d: %w", surveyID, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %d: %w", surveyID, err)
	}

	responses, err := s.repo.Response().ListBySurvey(ctx, surveyID, repositories.ResponseFilters{
		Name:     filters.Name,
		Email:    filters.Email,
		DateFrom: filters.DateFrom,
		DateTo:   filters.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	// Completion cannot be expressed as a stored-field predicate, so it is a
	// post-filter over the fetched rows.
	completedCount := 0
	filtered := make([]*models.Response, 0, len(responses))
	for _, response := range responses {
		completed := hasMeaningfulAnswers(response)
		if filters.Status == CompletionCompleted && !completed {
			continue
		}
		if filters.Status == CompletionIncomplete && completed {
			continue
		}
		if completed {
			completedCount++
		}
		filtered = append(filtered, response)
	}

	questions, useSnapshots := s.questionSet(ctx, survey, filtered)

	stats := &SurveyStatistics{
		AggregatedStats: s.aggregate(questions, filtered, useSnapshots),
		UserResponses:   s.userResponses(survey, questions, filtered, useSnapshots),
		Summary: StatisticsSummary{
			TotalResponses: len(filtered),
			TotalQuestions: len(questions),
		},
	}
	// A survey with no resolvable questions cannot have a completion rate.
	if len(filtered) > 0 && len(questions) > 0 {
		stats.Summary.CompletionRate = round2(float64(completedCount) / float64(len(filtered)) * 100)
	}
	return stats, nil
}

// questionSet picks the canonical question list for the report: the first
// filtered response carrying snapshots defines it for everyone, otherwise
// the live survey definition does. A stale bank reference degrades to an
// empty list instead of failing the report.
func (s *statisticsService) questionSet(ctx context.Context, survey *models.Survey, responses []*models.Response) ([]models.Question, bool) {
	for _, response := range responses {
		snapshots, err := response.SnapshotList()
		if err != nil || len(snapshots) == 0 {
			continue
		}
		questions := make([]models.Question, len(snapshots))
		for i, snapshot := range snapshots {
			questions[i] = snapshot.QuestionData
		}
		return questions, true
	}

	questions, err := s.resolver.Resolve(ctx, survey, nil)
	if err != nil {
		if errors.Is(err, ErrQuestionBankNotFound) {
			s.logger.Warn("question bank unavailable for statistics",
				"survey_id", survey.ID, "error", err)
			return nil, false
		}
		s.logger.Warn("question resolution failed for statistics",
			"survey_id", survey.ID, "error", err)
		return nil, false
	}
	return questions, false
}

// aggregate tallies option selections per question. Every option appears in
// the tally, zero counts included; a question no response can answer still
// appears with all-zero counts.
func (s *statisticsService) aggregate(questions []models.Question, responses []*models.Response, useSnapshots bool) []QuestionStat {
	stats := make([]QuestionStat, len(questions))
	for i, question := range questions {
		options := make(map[string]int, len(question.Options))
		for _, option := range question.Options {
			options[option] = 0
		}

		for _, response := range responses {
			raw := readAnswer(response, i, question, useSnapshots)
			for _, index := range resolveAnswerIndices(raw, question) {
				options[question.Options[index]]++
			}
		}
		stats[i] = QuestionStat{Question: question.Text, Options: options}
	}
	return stats
}

// userResponses builds the per-respondent formatted view, keyed by question
// text with the sentinel for anything missing.
func (s *statisticsService) userResponses(survey *models.Survey, questions []models.Question, responses []*models.Response, useSnapshots bool) []UserResponseView {
	views := make([]UserResponseView, len(responses))
	for i, response := range responses {
		answers := make(map[string]string, len(questions))
		for j, question := range questions {
			raw := readAnswer(response, j, question, useSnapshots)
			answers[question.Text] = formatAnswer(raw, question)
		}

		view := UserResponseView{
			ID:           response.ID,
			Name:         response.Name,
			Email:        response.Email,
			Answers:      answers,
			TimeSpent:    response.TimeSpent,
			IsAutoSubmit: response.IsAutoSubmit,
			CreatedAt:    response.CreatedAt,
		}
		if survey.RequiresAnswers() {
			view.Score = scoreView(response.Score)
		}
		views[i] = view
	}
	return views
}

// ===== ANSWER LOOKUP =====

// answerLookupStrategy extracts one question's raw answer from a stored
// answers document. The strategies mirror how the storage format evolved
// over the product's history; they run in a fixed documented order and the
// first hit wins.
type answerLookupStrategy func(doc any, index int, question models.Question) (any, bool)

var answerLookupStrategies = []answerLookupStrategy{
	// Positional array.
	func(doc any, index int, _ models.Question) (any, bool) {
		list, ok := doc.([]any)
		if !ok || index >= len(list) {
			return nil, false
		}
		return list[index], true
	},
	// Object keyed by question index.
	func(doc any, index int, _ models.Question) (any, bool) {
		object, ok := doc.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok := object[strconv.Itoa(index)]
		return value, ok
	},
	// Object keyed by legacy question id.
	func(doc any, _ int, question models.Question) (any, bool) {
		object, ok := doc.(map[string]any)
		if !ok || question.ID == "" {
			return nil, false
		}
		value, ok := object[question.ID]
		return value, ok
	},
	// Object keyed by question text.
	func(doc any, _ int, question models.Question) (any, bool) {
		object, ok := doc.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok := object[question.Text]
		return value, ok
	},
}

// readAnswer returns one question's raw answer for a response: the snapshot
// value when the report runs in snapshot mode and the response has one,
// otherwise the legacy lookup chain over the answers document.
func readAnswer(response *models.Response, index int, question models.Question, useSnapshots bool) any {
	if useSnapshots {
		if snapshots, err := response.SnapshotList(); err == nil && len(snapshots) > 0 {
			for _, snapshot := range snapshots {
				if snapshot.QuestionIndex == index {
					return answerValueDocument(snapshot.UserAnswer)
				}
			}
			return nil
		}
	}

	doc := response.AnswersDocument()
	if doc == nil {
		return nil
	}
	for _, strategy := range answerLookupStrategies {
		if value, ok := strategy(doc, index, question); ok {
			return value
		}
	}
	return nil
}

func answerValueDocument(value models.AnswerValue) any {
	switch value.Kind {
	case models.AnswerText:
		return value.Text
	case models.AnswerList:
		list := make([]any, len(value.List))
		for i, element := range value.List {
			list[i] = element
		}
		return list
	default:
		return nil
	}
}

// numericStringIndex interprets a string as a stored option index, the shape
// old rows used for choice answers ("1" meaning the second option). Option
// text matching runs first so options whose text is itself numeric keep
// winning on the exact match.
func numericStringIndex(value string, question models.Question) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || index < 0 || index >= len(question.Options) {
		return 0, false
	}
	return index, true
}

// resolveAnswerIndices maps a raw answer onto option indices for tallying.
// Values that match no option contribute nothing.
func resolveAnswerIndices(raw any, question models.Question) []int {
	switch value := raw.(type) {
	case string:
		if index, ok := matchOptionIndex(question.Options, value); ok {
			return []int{index}
		}
		if index, ok := numericStringIndex(value, question); ok {
			return []int{index}
		}
	case float64:
		index := int(value)
		if index >= 0 && index < len(question.Options) {
			return []int{index}
		}
	case []any:
		var indices []int
		for _, element := range value {
			indices = append(indices, resolveAnswerIndices(element, question)...)
		}
		return indices
	}
	return nil
}

// formatAnswer renders a raw answer for display: option text for indices,
// a joined list for multi-select, the raw string otherwise.
func formatAnswer(raw any, question models.Question) string {
	switch value := raw.(type) {
	case string:
		if value == "" {
			return NoAnswerSentinel
		}
		if _, ok := matchOptionIndex(question.Options, value); !ok {
			if index, numeric := numericStringIndex(value, question); numeric {
				return question.Options[index]
			}
		}
		return value
	case float64:
		index := int(value)
		if index >= 0 && index < len(question.Options) {
			return question.Options[index]
		}
		return NoAnswerSentinel
	case []any:
		var parts []string
		for _, element := range value {
			if formatted := formatAnswer(element, question); formatted != NoAnswerSentinel {
				parts = append(parts, formatted)
			}
		}
		if len(parts) == 0 {
			return NoAnswerSentinel
		}
		return strings.Join(parts, ", ")
	default:
		return NoAnswerSentinel
	}
}

// hasMeaningfulAnswers classifies completion: at least one non-empty
// submitted value. Snapshot rows are judged by their snapshot answers,
// legacy rows by the answers document.
func hasMeaningfulAnswers(response *models.Response) bool {
	if snapshots, err := response.SnapshotList(); err == nil && len(snapshots) > 0 {
		for _, snapshot := range snapshots {
			if !snapshot.UserAnswer.IsNone() {
				if snapshot.UserAnswer.Kind == models.AnswerText && snapshot.UserAnswer.Text == "" {
					continue
				}
				if snapshot.UserAnswer.Kind == models.AnswerList && len(snapshot.UserAnswer.List) == 0 {
					continue
				}
				return true
			}
		}
		return false
	}

	return anyMeaningfulValue(response.AnswersDocument())
}

func anyMeaningfulValue(doc any) bool {
	switch value := doc.(type) {
	case string:
		return value != ""
	case float64, bool:
		return true
	case []any:
		for _, element := range value {
			if anyMeaningfulValue(element) {
				return true
			}
		}
	case map[string]any:
		for _, element := range value {
			if anyMeaningfulValue(element) {
				return true
			}
		}
	}
	return false
}

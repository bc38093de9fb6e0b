package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/formpulse/survey-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ===== STATISTICS EXPORT =====

type exportService struct {
	surveys    repositories.SurveyRepository
	statistics StatisticsService
	logger     *slog.Logger
}

func NewExportService(surveys repositories.SurveyRepository, statistics StatisticsService, logger *slog.Logger) ExportService {
	return &exportService{surveys: surveys, statistics: statistics, logger: logger}
}

// ExportStatistics renders the aggregated report as an xlsx workbook with a
// summary sheet, a per-respondent sheet, and a per-question tally sheet.
func (s *exportService) ExportStatistics(ctx context.Context, surveyID uint, filters StatisticsFilters) ([]byte, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d: %w", surveyID, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %d: %w", surveyID, err)
	}

	stats, err := s.statistics.SurveyStatistics(ctx, surveyID, filters)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := s.writeSummarySheet(file, survey.Title, stats); err != nil {
		return nil, err
	}
	if err := s.writeResponsesSheet(file, stats, survey.RequiresAnswers()); err != nil {
		return nil, err
	}
	if err := s.writeAggregatedSheet(file, stats); err != nil {
		return nil, err
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func (s *exportService) writeSummarySheet(file *excelize.File, title string, stats *SurveyStatistics) error {
	const sheet = "Summary"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	rows := [][]any{
		{"Survey", title},
		{"Total responses", stats.Summary.TotalResponses},
		{"Completion rate", fmt.Sprintf("%.2f%%", stats.Summary.CompletionRate)},
		{"Total questions", stats.Summary.TotalQuestions},
	}
	for i, row := range rows {
		if err := setRow(file, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *exportService) writeResponsesSheet(file *excelize.File, stats *SurveyStatistics, scored bool) error {
	const sheet = "Responses"
	if _, err := file.NewSheet(sheet); err != nil {
		return fmt.Errorf("create responses sheet: %w", err)
	}

	// Question columns keep the aggregated order, not map order.
	questionTexts := make([]string, len(stats.AggregatedStats))
	for i, stat := range stats.AggregatedStats {
		questionTexts[i] = stat.Question
	}

	header := []any{"Name", "Email", "Submitted At"}
	for _, text := range questionTexts {
		header = append(header, text)
	}
	if scored {
		header = append(header, "Score", "Passed")
	}
	if err := setRow(file, sheet, 1, header); err != nil {
		return err
	}

	for i, view := range stats.UserResponses {
		row := []any{view.Name, view.Email, view.CreatedAt.Format("2006-01-02 15:04:05")}
		for _, text := range questionTexts {
			answer, ok := view.Answers[text]
			if !ok {
				answer = NoAnswerSentinel
			}
			row = append(row, answer)
		}
		if scored && view.Score != nil {
			row = append(row, view.Score.FormattedScore, view.Score.Passed)
		}
		if err := setRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *exportService) writeAggregatedSheet(file *excelize.File, stats *SurveyStatistics) error {
	const sheet = "Aggregated"
	if _, err := file.NewSheet(sheet); err != nil {
		return fmt.Errorf("create aggregated sheet: %w", err)
	}

	if err := setRow(file, sheet, 1, []any{"Question", "Option", "Count"}); err != nil {
		return err
	}

	rowIndex := 2
	for _, stat := range stats.AggregatedStats {
		options := make([]string, 0, len(stat.Options))
		for option := range stat.Options {
			options = append(options, option)
		}
		sort.Strings(options)

		for _, option := range options {
			if err := setRow(file, sheet, rowIndex, []any{stat.Question, option, stat.Options[option]}); err != nil {
				return err
			}
			rowIndex++
		}
	}
	return nil
}

func setRow(file *excelize.File, sheet string, row int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubStatisticsService struct {
	stats *SurveyStatistics
}

func (s *stubStatisticsService) SurveyStatistics(ctx context.Context, surveyID uint, filters StatisticsFilters) (*SurveyStatistics, error) {
	return s.stats, nil
}

func TestExportStatistics_BuildsWorkbook(t *testing.T) {
	surveys := new(MockSurveyRepository)
	surveys.On("GetByID", mock.Anything, uint(1)).Return(quizSurvey(t), nil)

	statistics := &stubStatisticsService{stats: &SurveyStatistics{
		AggregatedStats: []QuestionStat{
			{Question: "Pick one", Options: map[string]int{"A": 0, "B": 2, "C": 0}},
		},
		UserResponses: []UserResponseView{
			{
				Name:      "Ada",
				Email:     "ada@example.com",
				Answers:   map[string]string{"Pick one": "B"},
				Score:     &ScoreView{FormattedScore: "100分 (100%)", Passed: true},
				CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		Summary: StatisticsSummary{TotalResponses: 1, CompletionRate: 100, TotalQuestions: 1},
	}}

	service := NewExportService(surveys, statistics, testLogger())

	workbook, err := service.ExportStatistics(context.Background(), 1, StatisticsFilters{})
	require.NoError(t, err)
	require.NotEmpty(t, workbook)

	file, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Summary", "Responses", "Aggregated"}, file.GetSheetList())

	name, err := file.GetCellValue("Responses", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	count, err := file.GetCellValue("Aggregated", "C3")
	require.NoError(t, err)
	assert.Equal(t, "2", count)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/formpulse/survey-service/internal/errors"
	"github.com/formpulse/survey-service/internal/events"
	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"github.com/formpulse/survey-service/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== RESPONSE SUBMISSION =====

// keyedMutex serializes operations per key so two concurrent submissions for
// the same respondent cannot both take the create path.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

type responseService struct {
	repo      repositories.Repository
	resolver  *QuestionResolver
	publisher events.EventPublisher
	validator *utils.Validator
	logger    *slog.Logger
	locks     keyedMutex
}

func NewResponseService(
	repo repositories.Repository,
	resolver *QuestionResolver,
	publisher events.EventPublisher,
	validator *utils.Validator,
	logger *slog.Logger,
) ResponseService {
	return &responseService{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		validator: validator,
		logger:    logger,
	}
}

// Submit ingests one submission: normalize, resolve, snapshot, score, then a
// single write. For question_bank surveys an existing response for the same
// respondent is updated in place instead of duplicated.
func (s *responseService) Submit(ctx context.Context, req *SubmitResponseRequest) (*SubmitResponseResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, apperrors.ToValidationErrors(err).Error())
	}

	survey, err := s.repo.Survey().GetByID(ctx, req.SurveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d: %w", req.SurveyID, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %d: %w", req.SurveyID, err)
	}

	// Question-bank surveys keep one canonical response per respondent, so
	// the lookup-or-create decision must be serialized per (survey, email).
	var existing *models.Response
	if survey.SourceType == models.SourceQuestionBank {
		key := fmt.Sprintf("%d|%s", survey.ID, strings.ToLower(req.Email))
		unlock := s.locks.Lock(key)
		defer unlock()

		existing, err = s.repo.Response().GetBySurveyAndEmail(ctx, survey.ID, req.Email)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("lookup response: %w", err)
		}
	}

	questions, err := s.resolver.Resolve(ctx, survey, existing)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("survey %d: %w", survey.ID, ErrSurveyHasNoQuestions)
	}

	normalized := NormalizeAnswers(req.Answers, questions)
	snapshots := BuildQuestionSnapshots(questions, normalized.Positional)

	var score models.ResponseScore
	if survey.RequiresAnswers() {
		score = CalculateScore(questions, normalized.ByIndex, survey.Scoring())
	}

	response := existing
	created := response == nil
	if created {
		response = &models.Response{SurveyID: survey.ID}
	}
	if err := s.fillResponse(response, req, normalized, snapshots, score); err != nil {
		return nil, err
	}

	if created {
		err = s.repo.Response().Create(ctx, response)
	} else {
		err = s.repo.Response().Update(ctx, response)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("survey %d respondent %s: %w", survey.ID, req.Email, ErrConflict)
		}
		return nil, fmt.Errorf("store response: %w", err)
	}

	s.publishEvent(ctx, response, survey.RequiresAnswers(), created)

	result := &SubmitResponseResult{Response: response, Created: created}
	if survey.RequiresAnswers() {
		result.Score = scoreView(response.Score)
	}
	return result, nil
}

// fillResponse writes every stored field in one place so create and update
// always produce the same shape.
func (s *responseService) fillResponse(
	response *models.Response,
	req *SubmitResponseRequest,
	normalized NormalizedAnswers,
	snapshots []models.QuestionSnapshot,
	score models.ResponseScore,
) error {
	answersDoc, err := normalized.Document()
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	snapshotsDoc, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}

	response.Name = req.Name
	response.Email = req.Email
	response.Answers = datatypes.JSON(answersDoc)
	response.QuestionSnapshots = datatypes.JSON(snapshotsDoc)
	// A rebuilt snapshot supersedes the legacy selected-question record.
	response.SelectedQuestions = nil
	response.Score = score
	response.TimeSpent = req.TimeSpent
	response.IsAutoSubmit = req.IsAutoSubmit

	if req.Metadata != nil {
		metadataDoc, err := json.Marshal(req.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		response.Metadata = datatypes.JSON(metadataDoc)
	}
	return nil
}

// publishEvent emits the lifecycle event best-effort; a broker failure never
// fails a stored submission.
func (s *responseService) publishEvent(ctx context.Context, response *models.Response, scored, created bool) {
	eventType := events.ResponseUpdated
	if created {
		eventType = events.ResponseSubmitted
	}
	event := events.NewResponseEvent(eventType, response, scored)
	if err := s.publisher.PublishResponseEvent(ctx, event); err != nil {
		s.logger.Warn("response event not published",
			"response_id", response.ID, "event_type", eventType, "error", err)
	}
}

// SubmitBySlug resolves a public survey link to its survey before running
// the regular submission path.
func (s *responseService) SubmitBySlug(ctx context.Context, slug string, req *SubmitResponseRequest) (*SubmitResponseResult, error) {
	survey, err := s.repo.Survey().GetBySlug(ctx, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %q: %w", slug, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %q: %w", slug, err)
	}
	req.SurveyID = survey.ID
	return s.Submit(ctx, req)
}

func (s *responseService) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	response, err := s.repo.Response().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("response %d: %w", id, ErrResponseNotFound)
		}
		return nil, fmt.Errorf("load response %d: %w", id, err)
	}
	return response, nil
}

func (s *responseService) ListBySurvey(ctx context.Context, surveyID uint, filters repositories.ResponseFilters) ([]*models.Response, error) {
	if _, err := s.repo.Survey().GetByID(ctx, surveyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d: %w", surveyID, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %d: %w", surveyID, err)
	}
	return s.repo.Response().ListBySurvey(ctx, surveyID, filters)
}

// SummaryBySurvey reports the response count and latest submission time for
// one survey, for listing views that must not load every row.
func (s *responseService) SummaryBySurvey(ctx context.Context, surveyID uint) (*ResponseSummary, error) {
	if _, err := s.repo.Survey().GetByID(ctx, surveyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d: %w", surveyID, ErrSurveyNotFound)
		}
		return nil, fmt.Errorf("load survey %d: %w", surveyID, err)
	}

	total, err := s.repo.Response().CountBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	last, err := s.repo.Response().LastResponseAt(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("last response time: %w", err)
	}
	return &ResponseSummary{
		SurveyID:       surveyID,
		TotalResponses: total,
		LastResponseAt: last,
	}, nil
}

func scoreView(score models.ResponseScore) *ScoreView {
	return &ScoreView{
		TotalPoints:       score.TotalPoints,
		MaxPossiblePoints: score.MaxPossiblePoints,
		CorrectAnswers:    score.CorrectAnswers,
		WrongAnswers:      score.WrongAnswers,
		Percentage:        score.Percentage,
		DisplayScore:      score.DisplayScore,
		ScoringMode:       score.ScoringMode,
		Passed:            score.Passed,
		FormattedScore:    score.FormattedScore(),
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
)

// ===== QUESTION RESOLUTION =====

// QuestionResolver determines which question definitions a response answered.
// It runs once at save time to build the snapshot and again at statistics
// read time per response; both call sites go through Resolve so the
// precedence stays identical.
type QuestionResolver struct {
	banks  repositories.QuestionBankRepository
	logger *slog.Logger
}

func NewQuestionResolver(banks repositories.QuestionBankRepository, logger *slog.Logger) *QuestionResolver {
	return &QuestionResolver{banks: banks, logger: logger}
}

// Resolve returns the ordered question list for a response, existing may be
// nil for a first submission. Precedence:
//  1. The response's own snapshots, the record of truth once written.
//  2. The legacy selectedQuestions field on question_bank responses.
//  3. The linked question bank's full list.
//  4. All configured banks of a multi-bank survey, concatenated.
//  5. The survey's inline questions.
func (r *QuestionResolver) Resolve(ctx context.Context, survey *models.Survey, existing *models.Response) ([]models.Question, error) {
	if existing != nil {
		snapshots, err := existing.SnapshotList()
		if err != nil {
			r.logger.Warn("unreadable snapshots, falling through to survey definition",
				"response_id", existing.ID, "error", err)
		}
		if len(snapshots) > 0 {
			questions := make([]models.Question, len(snapshots))
			for i, snapshot := range snapshots {
				questions[i] = snapshot.QuestionData
			}
			return questions, nil
		}

		if survey.SourceType == models.SourceQuestionBank {
			selected, err := existing.SelectedQuestionList()
			if err != nil {
				r.logger.Warn("unreadable selected questions, falling through to bank",
					"response_id", existing.ID, "error", err)
			}
			if len(selected) > 0 {
				questions := make([]models.Question, len(selected))
				for i, entry := range selected {
					questions[i] = entry.QuestionData
				}
				return questions, nil
			}
		}
	}

	switch survey.SourceType {
	case models.SourceQuestionBank:
		return r.resolveFromBank(ctx, survey)
	case models.SourceMultiQuestionBank:
		return r.resolveFromMultiBank(ctx, survey)
	default:
		return survey.QuestionList()
	}
}

func (r *QuestionResolver) resolveFromBank(ctx context.Context, survey *models.Survey) ([]models.Question, error) {
	if survey.QuestionBankID == nil {
		return nil, fmt.Errorf("survey %d: %w", survey.ID, ErrQuestionBankNotFound)
	}
	bank, err := r.banks.GetByID(ctx, *survey.QuestionBankID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("survey %d bank %d: %w", survey.ID, *survey.QuestionBankID, ErrQuestionBankNotFound)
		}
		return nil, fmt.Errorf("load question bank %d: %w", *survey.QuestionBankID, err)
	}
	return bank.QuestionList()
}

func (r *QuestionResolver) resolveFromMultiBank(ctx context.Context, survey *models.Survey) ([]models.Question, error) {
	configs, err := survey.MultiBankConfigs()
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(configs))
	for i, config := range configs {
		ids[i] = config.QuestionBankID
	}
	banks, err := r.banks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load question banks: %w", err)
	}
	banksByID := make(map[uint]*models.QuestionBank, len(banks))
	for _, bank := range banks {
		banksByID[bank.ID] = bank
	}

	// Concatenate in configuration order. A stale bank reference skips that
	// entry rather than failing the whole resolution.
	var questions []models.Question
	for _, config := range configs {
		bank, ok := banksByID[config.QuestionBankID]
		if !ok {
			r.logger.Warn("configured question bank missing, skipping",
				"survey_id", survey.ID, "question_bank_id", config.QuestionBankID)
			continue
		}
		bankQuestions, err := bank.QuestionList()
		if err != nil {
			r.logger.Warn("unreadable question bank, skipping",
				"question_bank_id", bank.ID, "error", err)
			continue
		}
		questions = append(questions, bankQuestions...)
	}
	return questions, nil
}

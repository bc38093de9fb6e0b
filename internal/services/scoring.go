package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/formpulse/survey-service/internal/models"
	"gorm.io/datatypes"
)

// ===== SCORING =====

// CalculateScore grades a canonical answer set against the resolved
// questions. It never fails: a survey with zero gradable points produces a
// zero score with passed=false. The passing threshold is always compared
// against the percentage, regardless of scoring mode.
func CalculateScore(questions []models.Question, answers map[int]models.CanonicalAnswer, settings models.ScoringSettings) models.ResponseScore {
	score := models.ResponseScore{
		ScoringMode: settings.ModeValue(),
	}

	details := make([]models.QuestionScore, 0, len(questions))
	for i, question := range questions {
		if !isGradable(question) {
			continue
		}
		points := question.PointsValue()
		score.MaxPossiblePoints += points

		// An absent entry means unanswered (or dropped as unresolvable) and
		// is always wrong; the zero CanonicalAnswer must never reach the
		// per-kind comparisons.
		answer, answered := answers[i]
		correct := answered && isCorrect(question, answer)
		entry := models.QuestionScore{
			QuestionIndex: i,
			MaxPoints:     points,
			IsCorrect:     correct,
		}
		if correct {
			entry.PointsAwarded = points
			score.TotalPoints += points
			score.CorrectAnswers++
		} else {
			score.WrongAnswers++
		}
		details = append(details, entry)
	}

	if score.MaxPossiblePoints > 0 {
		score.Percentage = round2(float64(score.TotalPoints) / float64(score.MaxPossiblePoints) * 100)
	}
	if score.ScoringMode == models.ScoringAccumulated {
		score.DisplayScore = float64(score.TotalPoints)
	} else {
		score.DisplayScore = score.Percentage
	}
	score.Passed = score.Percentage >= settings.ThresholdValue()

	if detailsJSON, err := json.Marshal(details); err == nil {
		score.ScoringDetails = datatypes.JSON(detailsJSON)
	}
	return score
}

// isGradable reports whether a question carries a usable correctness rule.
// A multiple_choice key with an empty index set is treated as ungradable, as
// is a short_text question without a reference answer; ungradable questions
// are excluded from both the tally and maxPossiblePoints.
func isGradable(question models.Question) bool {
	key := question.CorrectAnswer
	if key == nil {
		return false
	}
	switch question.TypeValue() {
	case models.SingleChoice:
		return key.Kind == models.KeySingle
	case models.MultipleChoice:
		return key.Kind == models.KeyMulti && len(key.Indices) > 0
	case models.ShortText:
		return key.Kind == models.KeyText && strings.TrimSpace(key.Text) != ""
	default:
		return false
	}
}

// isCorrect evaluates one answered question. An unanswered gradable question
// is wrong.
func isCorrect(question models.Question, answer models.CanonicalAnswer) bool {
	key := question.CorrectAnswer
	switch question.TypeValue() {
	case models.SingleChoice:
		return answer.Kind == models.CanonicalIndex && answer.Index == key.Single
	case models.MultipleChoice:
		// Exact set equality, no partial credit for subsets.
		return answer.Kind == models.CanonicalIndexSet && sameIndexSet(answer.Indices, key.Indices)
	case models.ShortText:
		return answer.Kind == models.CanonicalText &&
			strings.TrimSpace(answer.Text) == strings.TrimSpace(key.Text)
	default:
		return false
	}
}

func sameIndexSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	if len(set) != len(a) {
		// Duplicate submissions never equal a proper set.
		return false
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

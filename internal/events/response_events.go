package events

import (
	"time"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/google/uuid"
)

type EventType string

const (
	ResponseSubmitted EventType = "response.submitted"
	ResponseUpdated   EventType = "response.updated"
)

// ScoreSummary is the slice of the score carried on events; consumers use
// it for notifications and dashboards without reloading the response.
type ScoreSummary struct {
	TotalPoints       int                `json:"total_points"`
	MaxPossiblePoints int                `json:"max_possible_points"`
	Percentage        float64            `json:"percentage"`
	DisplayScore      float64            `json:"display_score"`
	ScoringMode       models.ScoringMode `json:"scoring_mode"`
	Passed            bool               `json:"passed"`
}

// ResponseEvent is published after a submission has been durably stored.
type ResponseEvent struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Source     string        `json:"source"`
	Version    string        `json:"version"`
	Timestamp  time.Time     `json:"timestamp"`
	SurveyID   uint          `json:"survey_id"`
	ResponseID uint          `json:"response_id"`
	Email      string        `json:"email"`
	Score      *ScoreSummary `json:"score,omitempty"`
}

// NewResponseEvent builds an event for a stored response. Score is only
// attached for scored survey types.
func NewResponseEvent(eventType EventType, response *models.Response, scored bool) *ResponseEvent {
	event := &ResponseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     "survey-service",
		Version:    "1.0",
		Timestamp:  time.Now().UTC(),
		SurveyID:   response.SurveyID,
		ResponseID: response.ID,
		Email:      response.Email,
	}
	if scored {
		event.Score = &ScoreSummary{
			TotalPoints:       response.Score.TotalPoints,
			MaxPossiblePoints: response.Score.MaxPossiblePoints,
			Percentage:        response.Score.Percentage,
			DisplayScore:      response.Score.DisplayScore,
			ScoringMode:       response.Score.ScoringMode,
			Passed:            response.Score.Passed,
		}
	}
	return event
}

package services

import (
	"github.com/formpulse/survey-service/internal/models"
)

// BuildQuestionSnapshots freezes the resolved questions together with the
// respondent's positional answers. One snapshot is emitted per question,
// unanswered ones included, so the snapshot length always matches the
// question count. On update the whole array is rebuilt, never merged with a
// prior snapshot.
func BuildQuestionSnapshots(questions []models.Question, positional []models.AnswerValue) []models.QuestionSnapshot {
	snapshots := make([]models.QuestionSnapshot, len(questions))
	for i, question := range questions {
		var answer models.AnswerValue
		if i < len(positional) {
			answer = positional[i]
		}
		snapshots[i] = models.QuestionSnapshot{
			QuestionIndex: i,
			QuestionData:  question,
			UserAnswer:    answer,
		}
	}
	return snapshots
}

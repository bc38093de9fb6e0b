package postgres

import (
	"github.com/formpulse/survey-service/internal/cache"
	"github.com/formpulse/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	survey       repositories.SurveyRepository
	questionBank repositories.QuestionBankRepository
	response     repositories.ResponseRepository
}

// NewRepository wires the postgres-backed repositories. The cache is used
// as a read-through layer for survey and question bank lookups; pass nil to
// disable caching.
func NewRepository(db *gorm.DB, cacheService cache.CacheService) repositories.Repository {
	return &repository{
		survey:       NewSurveyPostgreSQL(db, cacheService),
		questionBank: NewQuestionBankPostgreSQL(db, cacheService),
		response:     NewResponsePostgreSQL(db),
	}
}

func (r *repository) Survey() repositories.SurveyRepository {
	return r.survey
}

func (r *repository) QuestionBank() repositories.QuestionBankRepository {
	return r.questionBank
}

func (r *repository) Response() repositories.ResponseRepository {
	return r.response
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/formpulse/survey-service/internal/cache"
	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"gorm.io/gorm"
)

const questionBankCacheTTL = 5 * time.Minute

type QuestionBankPostgreSQL struct {
	db    *gorm.DB
	cache cache.CacheService
}

func NewQuestionBankPostgreSQL(db *gorm.DB, cacheService cache.CacheService) repositories.QuestionBankRepository {
	return &QuestionBankPostgreSQL{
		db:    db,
		cache: cacheService,
	}
}

func (q QuestionBankPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuestionBank, error) {
	cacheKey := fmt.Sprintf("question_bank:%d", id)

	if q.cache != nil {
		var cached models.QuestionBank
		if err := q.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var bank models.QuestionBank
	if err := q.db.WithContext(ctx).First(&bank, id).Error; err != nil {
		return nil, err
	}

	if q.cache != nil {
		_ = q.cache.Set(ctx, cacheKey, &bank, questionBankCacheTTL)
	}

	return &bank, nil
}

func (q QuestionBankPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionBank, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var banks []*models.QuestionBank
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&banks).Error; err != nil {
		return nil, err
	}
	return banks, nil
}

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

const surveyCacheTTL = 5 * time.Minute

type SurveyPostgreSQL struct {
	db    *gorm.DB
	cache cache.CacheService
}

func NewSurveyPostgreSQL(db *gorm.DB, cacheService cache.CacheService) repositories.SurveyRepository {
	return &SurveyPostgreSQL{
		db:    db,
		cache: cacheService,
	}
}

func (s SurveyPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Survey, error) {
	cacheKey := fmt.Sprintf("survey:%d", id)

	if s.cache != nil {
		var cached models.Survey
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var survey models.Survey
	if err := s.db.WithContext(ctx).First(&survey, id).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, &survey, surveyCacheTTL)
	}

	return &survey, nil
}

func (s SurveyPostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Survey, error) {
	var survey models.Survey
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&survey).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

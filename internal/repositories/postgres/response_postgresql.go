package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r ResponsePostgreSQL) Create(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r ResponsePostgreSQL) Update(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Save(response).Error
}

func (r ResponsePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	var response models.Response
	if err := r.db.WithContext(ctx).First(&response, id).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r ResponsePostgreSQL) GetBySurveyAndEmail(ctx context.Context, surveyID uint, email string) (*models.Response, error) {
	var response models.Response
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND lower(email) = ?", surveyID, strings.ToLower(email)).
		Order("created_at ASC").
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r ResponsePostgreSQL) ListBySurvey(ctx context.Context, surveyID uint, filters repositories.ResponseFilters) ([]*models.Response, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("survey_id = ?", surveyID)
	query = r.applyFilters(query, filters)

	var responses []*models.Response
	if err := query.Order("created_at ASC").Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r ResponsePostgreSQL) CountBySurvey(ctx context.Context, surveyID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("survey_id = ?", surveyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r ResponsePostgreSQL) LastResponseAt(ctx context.Context, surveyID uint) (*time.Time, error) {
	var response models.Response
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at DESC").
		Select("created_at").
		First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &response.CreatedAt, nil
}

func (r ResponsePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResponseFilters) *gorm.DB {
	if filters.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Name+"%")
	}
	if filters.Email != "" {
		query = query.Where("email ILIKE ?", "%"+filters.Email+"%")
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

// ClassTemplateRepository defines persistence operations for recurring
// weekly slots.
type ClassTemplateRepository interface {
	List(ctx context.Context, businessID uint) ([]models.ClassTemplate, error)
	GetByID(ctx context.Context, id uint) (models.ClassTemplate, error)
	Create(ctx context.Context, template *models.ClassTemplate) error
	Update(ctx context.Context, template *models.ClassTemplate) error
	Delete(ctx context.Context, id uint) error
	ReferenceCount(ctx context.Context, templateID uint) (int64, error)
}

type classTemplateRepository struct {
	db *gorm.DB
}

// NewClassTemplateRepository instantiates a GORM-backed repository.
func NewClassTemplateRepository(db *gorm.DB) ClassTemplateRepository {
	return &classTemplateRepository{db: db}
}

func (r *classTemplateRepository) List(ctx context.Context, businessID uint) ([]models.ClassTemplate, error) {
	var templates []models.ClassTemplate
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("weekday ASC, start_time ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *classTemplateRepository) GetByID(ctx context.Context, id uint) (models.ClassTemplate, error) {
	var template models.ClassTemplate
	if err := r.db.WithContext(ctx).First(&template, id).Error; err != nil {
		return models.ClassTemplate{}, err
	}

	return template, nil
}

func (r *classTemplateRepository) Create(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *classTemplateRepository) Update(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *classTemplateRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ClassTemplate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classTemplateRepository) ReferenceCount(ctx context.Context, templateID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CourseTemplate{}).
		Where("template_id = ?", templateID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

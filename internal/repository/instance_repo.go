package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

// ClassInstanceRepository defines persistence operations for materialized
// class sessions.
type ClassInstanceRepository interface {
	GetByID(ctx context.Context, id uint) (models.ClassInstance, error)
	FindByTemplateAndDay(ctx context.Context, templateID uint, dayStart, dayEnd time.Time) (models.ClassInstance, error)
	Create(ctx context.Context, instance *models.ClassInstance) error
	Update(ctx context.Context, instance *models.ClassInstance) error
	ListFutureByTemplate(ctx context.Context, templateID uint, from time.Time) ([]models.ClassInstance, error)
	ListByBusinessBetween(ctx context.Context, businessID uint, from, to time.Time) ([]models.ClassInstance, error)
}

type classInstanceRepository struct {
	db *gorm.DB
}

// NewClassInstanceRepository instantiates a GORM-backed repository.
func NewClassInstanceRepository(db *gorm.DB) ClassInstanceRepository {
	return &classInstanceRepository{db: db}
}

func (r *classInstanceRepository) GetByID(ctx context.Context, id uint) (models.ClassInstance, error) {
	var instance models.ClassInstance
	if err := r.db.WithContext(ctx).First(&instance, id).Error; err != nil {
		return models.ClassInstance{}, err
	}

	return instance, nil
}

func (r *classInstanceRepository) FindByTemplateAndDay(ctx context.Context, templateID uint, dayStart, dayEnd time.Time) (models.ClassInstance, error) {
	var instance models.ClassInstance
	if err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		First(&instance).Error; err != nil {
		return models.ClassInstance{}, err
	}

	return instance, nil
}

// Create inserts the instance. A duplicate-key error from the
// (template_id, date) unique index surfaces as gorm.ErrDuplicatedKey; the
// caller refetches the winner of the creation race.
func (r *classInstanceRepository) Create(ctx context.Context, instance *models.ClassInstance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *classInstanceRepository) Update(ctx context.Context, instance *models.ClassInstance) error {
	return r.db.WithContext(ctx).Save(instance).Error
}

func (r *classInstanceRepository) ListFutureByTemplate(ctx context.Context, templateID uint, from time.Time) ([]models.ClassInstance, error) {
	var instances []models.ClassInstance
	if err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Where("date >= ?", from).
		Order("date ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}

	return instances, nil
}

func (r *classInstanceRepository) ListByBusinessBetween(ctx context.Context, businessID uint, from, to time.Time) ([]models.ClassInstance, error) {
	var instances []models.ClassInstance
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC, start_time ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}

	return instances, nil
}

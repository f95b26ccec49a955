package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

// CourseRepository defines persistence operations for courses and their
// template memberships.
type CourseRepository interface {
	List(ctx context.Context, businessID uint) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course, templateIDs []uint) error
	Update(ctx context.Context, course *models.Course) error
	ReplaceTemplates(ctx context.Context, courseID uint, templateIDs []uint) error
	ListActiveByTemplate(ctx context.Context, templateID uint, day time.Time) ([]models.Course, error)
	AnyUpdatedSince(ctx context.Context, templateID uint, since time.Time) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, businessID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Preload("Templates", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("business_id = ?", businessID).
		Order("start_date DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).
		Preload("Templates", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course, templateIDs []uint) error {
	course.Templates = courseTemplateLinks(0, templateIDs)
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Templates").Save(course).Error
}

// ReplaceTemplates swaps the course's template set and touches the course
// row so staleness detection sees the change.
func (r *courseRepository) ReplaceTemplates(ctx context.Context, courseID uint, templateIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.CourseTemplate{}).Error; err != nil {
			return err
		}

		links := courseTemplateLinks(courseID, templateIDs)
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Course{}).
			Where("id = ?", courseID).
			Update("updated_at", time.Now()).Error
	})
}

func (r *courseRepository) ListActiveByTemplate(ctx context.Context, templateID uint, day time.Time) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Joins("JOIN course_templates ON course_templates.course_id = courses.id").
		Where("course_templates.template_id = ?", templateID).
		Where("courses.status = ?", models.CourseStatusActive).
		Where("courses.start_date <= ? AND courses.end_date >= ?", day, day).
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) AnyUpdatedSince(ctx context.Context, templateID uint, since time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Joins("JOIN course_templates ON course_templates.course_id = courses.id").
		Where("course_templates.template_id = ?", templateID).
		Where("courses.updated_at > ?", since).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func courseTemplateLinks(courseID uint, templateIDs []uint) []models.CourseTemplate {
	links := make([]models.CourseTemplate, 0, len(templateIDs))
	for position, templateID := range templateIDs {
		links = append(links, models.CourseTemplate{
			CourseID:   courseID,
			TemplateID: templateID,
			Position:   position,
		})
	}
	return links
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

// EnrollmentRepository defines persistence operations for the time-bounded
// enrollment ledger.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	FindOpen(ctx context.Context, courseID, studentID uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error)
	ActiveOnDate(ctx context.Context, courseID uint, day time.Time) ([]models.Enrollment, error)
	AnyUpdatedSinceForTemplate(ctx context.Context, templateID uint, since time.Time) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

// FindOpen returns the single open-ended enrollment for the pair, or
// gorm.ErrRecordNotFound when none is open.
func (r *enrollmentRepository) FindOpen(ctx context.Context, courseID, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Where("status = ? AND effective_to IS NULL", models.EnrollmentStatusActive).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("effective_from ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

// ActiveOnDate applies the inclusive interval test: effective_from <= day
// and (effective_to is null or day <= effective_to). Cancelled rows never
// count.
func (r *enrollmentRepository) ActiveOnDate(ctx context.Context, courseID uint, day time.Time) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("status <> ?", models.EnrollmentStatusCancelled).
		Where("effective_from <= ?", day).
		Where("effective_to IS NULL OR effective_to >= ?", day).
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) AnyUpdatedSinceForTemplate(ctx context.Context, templateID uint, since time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Joins("JOIN course_templates ON course_templates.course_id = enrollments.course_id").
		Where("course_templates.template_id = ?", templateID).
		Where("enrollments.updated_at > ?", since).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

// StudentRepository defines persistence operations for permanent students.
type StudentRepository interface {
	List(ctx context.Context, businessID uint) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates a GORM-backed repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, businessID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

// TempStudentRepository defines persistence operations for walk-ins scoped
// to a single class instance.
type TempStudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.TempStudent, error)
	Create(ctx context.Context, student *models.TempStudent) error
	Update(ctx context.Context, student *models.TempStudent) error
	ListActiveByInstance(ctx context.Context, instanceID uint) ([]models.TempStudent, error)
}

type tempStudentRepository struct {
	db *gorm.DB
}

// NewTempStudentRepository instantiates a GORM-backed repository.
func NewTempStudentRepository(db *gorm.DB) TempStudentRepository {
	return &tempStudentRepository{db: db}
}

func (r *tempStudentRepository) GetByID(ctx context.Context, id uint) (models.TempStudent, error) {
	var student models.TempStudent
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.TempStudent{}, err
	}

	return student, nil
}

func (r *tempStudentRepository) Create(ctx context.Context, student *models.TempStudent) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *tempStudentRepository) Update(ctx context.Context, student *models.TempStudent) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *tempStudentRepository) ListActiveByInstance(ctx context.Context, instanceID uint) ([]models.TempStudent, error) {
	var students []models.TempStudent
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND active = ?", instanceID, true).
		Order("created_at ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

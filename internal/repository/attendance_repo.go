package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studioflow/studioflow-api/internal/models"
)

// AttendanceRepository defines persistence operations for per-student
// attendance marks keyed by (instance, student).
type AttendanceRepository interface {
	Get(ctx context.Context, instanceID, studentID uint) (models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, instanceID, studentID uint) error
	ListByInstance(ctx context.Context, instanceID uint) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates a GORM-backed repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Get(ctx context.Context, instanceID, studentID uint) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND student_id = ?", instanceID, studentID).
		First(&record).Error; err != nil {
		return models.AttendanceRecord{}, err
	}

	return record, nil
}

// Upsert writes the mark, overwriting any prior row for the pair. Last write
// wins; no history of status changes is kept.
func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "marked_by", "updated_at"}),
		}).
		Create(record).Error
}

// Delete removes the mark for the pair. Deleting an absent mark is not an
// error; unmark is idempotent.
func (r *attendanceRepository) Delete(ctx context.Context, instanceID, studentID uint) error {
	return r.db.WithContext(ctx).
		Where("instance_id = ? AND student_id = ?", instanceID, studentID).
		Delete(&models.AttendanceRecord{}).Error
}

func (r *attendanceRepository) ListByInstance(ctx context.Context, instanceID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("student_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/models"
)

func newCourseFixture(t *testing.T) (*instanceFixture, CourseService) {
	t.Helper()

	base := newInstanceFixture(t)
	svc := NewCourseService(base.courses, base.templates, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	return base, svc
}

func TestCourseCreateRequiresExistingTemplates(t *testing.T) {
	f, svc := newCourseFixture(t)
	templateID, _ := f.seedBallet(t)

	created, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{
		Name:        "Winter Term",
		TemplateIDs: []uint{templateID, templateID},
		StartDate:   "2026-01-05",
		EndDate:     "2026-03-30",
	})
	require.NoError(t, err)
	require.Equal(t, []uint{templateID}, created.TemplateIDs, "duplicate template ids collapse")
	require.Equal(t, models.CourseStatusActive, created.Status)

	_, err = svc.Create(context.Background(), 1, dto.CourseCreateRequest{
		Name:        "Ghost Term",
		TemplateIDs: []uint{77},
		StartDate:   "2026-01-05",
		EndDate:     "2026-03-30",
	})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCourseCreateRejectsReversedWindow(t *testing.T) {
	f, svc := newCourseFixture(t)
	templateID, _ := f.seedBallet(t)

	_, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{
		Name:        "Backwards",
		TemplateIDs: []uint{templateID},
		StartDate:   "2026-03-30",
		EndDate:     "2026-01-05",
	})
	require.Error(t, err)
}

func TestCourseUpdateReplacesTemplateSet(t *testing.T) {
	f, svc := newCourseFixture(t)
	templateID, courseID := f.seedBallet(t)

	other := models.ClassTemplate{BusinessID: 1, Name: "Jazz", Weekday: 4, StartTime: "16:00", DurationMinutes: 60, Active: true}
	require.NoError(t, f.templates.Create(context.Background(), &other))

	updated, err := svc.Update(context.Background(), courseID, dto.CourseUpdateRequest{
		TemplateIDs: []uint{other.ID},
	})
	require.NoError(t, err)
	require.Equal(t, []uint{other.ID}, updated.TemplateIDs)
	require.NotContains(t, updated.TemplateIDs, templateID)

	_, err = svc.Update(context.Background(), 42, dto.CourseUpdateRequest{})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

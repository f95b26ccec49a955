package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/studioflow-api/internal/dto"
)

func newTemplateFixture(t *testing.T) (*instanceFixture, TemplateService) {
	t.Helper()

	base := newInstanceFixture(t)
	svc := NewTemplateService(base.templates, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	return base, svc
}

func TestTemplateCreateAndUpdate(t *testing.T) {
	_, svc := newTemplateFixture(t)

	created, err := svc.Create(context.Background(), 1, dto.TemplateCreateRequest{
		Name:            "Hip Hop Teens",
		Weekday:         3,
		StartTime:       "18:30",
		DurationMinutes: 45,
		Room:            "Studio B",
	})
	require.NoError(t, err)
	require.True(t, created.Active)

	newRoom := "Studio A"
	updated, err := svc.Update(context.Background(), created.ID, dto.TemplateUpdateRequest{Room: &newRoom})
	require.NoError(t, err)
	require.Equal(t, "Studio A", updated.Room)
	require.Equal(t, "18:30", updated.StartTime)

	_, err = svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateCreateValidatesPayload(t *testing.T) {
	_, svc := newTemplateFixture(t)

	_, err := svc.Create(context.Background(), 1, dto.TemplateCreateRequest{Name: "No Time", Weekday: 8})
	require.Error(t, err)
}

func TestTemplateDeleteBlockedWhileReferenced(t *testing.T) {
	f, svc := newTemplateFixture(t)
	templateID, _ := f.seedBallet(t)

	require.ErrorIs(t, svc.Delete(context.Background(), templateID), ErrTemplateInUse)

	deactivated, err := svc.Deactivate(context.Background(), templateID)
	require.NoError(t, err)
	require.False(t, deactivated.Active)

	orphan, err := svc.Create(context.Background(), 1, dto.TemplateCreateRequest{
		Name:            "Unused Slot",
		Weekday:         5,
		StartTime:       "10:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), orphan.ID))
}

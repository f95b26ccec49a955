package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/models"
)

type enrollmentFixture struct {
	*instanceFixture
	enrollmentSvc *enrollmentService
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()

	base := newInstanceFixture(t)
	svc := NewEnrollmentService(
		base.enrollments, base.courses, base.instances, base.events,
		validator.New(validator.WithRequiredStructEnabled()), testLogger(),
	).(*enrollmentService)

	return &enrollmentFixture{instanceFixture: base, enrollmentSvc: svc}
}

func TestEnrollRejectsDuplicateOpenEnrollment(t *testing.T) {
	f := newEnrollmentFixture(t)
	_, courseID := f.seedBallet(t)

	_, err := f.enrollmentSvc.Enroll(context.Background(), courseID, dto.EnrollRequest{StudentID: 1, EffectiveFrom: "2025-09-10"})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	result, err := f.enrollmentSvc.Enroll(context.Background(), courseID, dto.EnrollRequest{StudentID: 2, EffectiveFrom: "2025-09-10"})
	require.NoError(t, err)
	require.Equal(t, "2025-09-10", result.Enrollment.EffectiveFrom)
	require.Nil(t, result.Enrollment.EffectiveTo)
}

func TestEnrollUnknownCourse(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.enrollmentSvc.Enroll(context.Background(), 42, dto.EnrollRequest{StudentID: 1, EffectiveFrom: "2025-09-10"})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollPushesIntoFutureInstances(t *testing.T) {
	f := newEnrollmentFixture(t)
	templateID, courseID := f.seedBallet(t)

	// Materialize three Mondays, then mark the middle one manually edited.
	before, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 8))
	require.NoError(t, err)
	edited, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 15))
	require.NoError(t, err)
	synced, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 22))
	require.NoError(t, err)
	_, err = f.service.AddStudent(context.Background(), edited.ID, dto.RosterEditRequest{StudentID: 9})
	require.NoError(t, err)

	result, err := f.enrollmentSvc.Enroll(context.Background(), courseID, dto.EnrollRequest{StudentID: 2, EffectiveFrom: "2025-09-10"})
	require.NoError(t, err)
	require.Equal(t, 0, result.Sync.Failed)
	require.Equal(t, 1, result.Sync.Synced, "only the untouched future instance syncs")
	require.Equal(t, 1, result.Sync.Skipped, "manually edited instances are never pushed into")

	// Sep 8 predates the effective date and must stay as it was.
	stored, err := f.instances.GetByID(context.Background(), before.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1}, []uint(stored.StudentIDs))

	touched, err := f.instances.GetByID(context.Background(), edited.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 9}, []uint(touched.StudentIDs))

	pushed, err := f.instances.GetByID(context.Background(), synced.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2}, []uint(pushed.StudentIDs))
}

func TestEnrollPushPreservesStalenessEpoch(t *testing.T) {
	f := newEnrollmentFixture(t)
	templateID, courseID := f.seedBallet(t)

	// Materialize with a frozen clock so the epoch predates everything below.
	f.service.now = func() time.Time { return date(2025, 9, 1) }
	instance, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 15))
	require.NoError(t, err)
	require.Equal(t, []uint{1}, instance.StudentIDs)

	// A second course sharing the slot goes live with student 2 enrolled —
	// an upstream change the instance has not seen yet.
	second := models.Course{BusinessID: 1, Name: "Drop-in Pass", StartDate: date(2025, 9, 1), EndDate: date(2025, 12, 1), Status: models.CourseStatusActive}
	require.NoError(t, f.courses.Create(context.Background(), &second, []uint{templateID}))
	require.NoError(t, f.enrollments.Create(context.Background(), &models.Enrollment{CourseID: second.ID, StudentID: 2, EffectiveFrom: date(2025, 9, 1), Status: models.EnrollmentStatusActive}))

	// Student 3 enrolls in the first course; the push writes a delta but must
	// not advance the epoch past the pending change.
	result, err := f.enrollmentSvc.Enroll(context.Background(), courseID, dto.EnrollRequest{StudentID: 3, EffectiveFrom: "2025-09-10"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Sync.Synced)

	stored, err := f.instances.GetByID(context.Background(), instance.ID)
	require.NoError(t, err)
	require.Equal(t, date(2025, 9, 1), stored.RosterSyncedAt, "a delta push must not advance the sync epoch")

	// The next read still sees the instance as stale and converges on the
	// full union, picking up student 2.
	fresh, err := f.service.EnsureFresh(context.Background(), instance.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2, 3}, []uint(fresh.StudentIDs))
}

func TestEnrollPushHonorsCourseWindow(t *testing.T) {
	f := newEnrollmentFixture(t)
	templateID, _ := f.seedBallet(t)

	// A late-season course shares the slot but only covers October onward.
	late := models.Course{BusinessID: 1, Name: "Winter Intensive", StartDate: date(2025, 10, 1), EndDate: date(2025, 12, 1), Status: models.CourseStatusActive}
	require.NoError(t, f.courses.Create(context.Background(), &late, []uint{templateID}))

	september, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 15))
	require.NoError(t, err)
	october, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 10, 6))
	require.NoError(t, err)

	// Enrolling into the late course before its start date must only reach
	// instances the course actually covers.
	result, err := f.enrollmentSvc.Enroll(context.Background(), late.ID, dto.EnrollRequest{StudentID: 5, EffectiveFrom: "2025-09-01"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Sync.Synced)

	untouched, err := f.instances.GetByID(context.Background(), september.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1}, []uint(untouched.StudentIDs), "instances before the course window stay as they were")

	pushed, err := f.instances.GetByID(context.Background(), october.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 5}, []uint(pushed.StudentIDs))
}

func TestUnenrollClosesLedgerAndPullsFromFutureInstances(t *testing.T) {
	f := newEnrollmentFixture(t)
	templateID, courseID := f.seedBallet(t)

	last, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 8))
	require.NoError(t, err)
	gone, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 15))
	require.NoError(t, err)

	result, err := f.enrollmentSvc.Unenroll(context.Background(), courseID, dto.UnenrollRequest{StudentID: 1, EffectiveTo: "2025-09-08"})
	require.NoError(t, err)
	require.NotNil(t, result.Enrollment.EffectiveTo)
	require.Equal(t, "2025-09-08", *result.Enrollment.EffectiveTo)
	require.Equal(t, models.EnrollmentStatusCompleted, result.Enrollment.Status)

	// The last effective day keeps the student, later sessions drop them.
	kept, err := f.instances.GetByID(context.Background(), last.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{1}, []uint(kept.StudentIDs))

	removed, err := f.instances.GetByID(context.Background(), gone.ID)
	require.NoError(t, err)
	require.Empty(t, removed.StudentIDs)

	_, err = f.enrollmentSvc.Unenroll(context.Background(), courseID, dto.UnenrollRequest{StudentID: 1, EffectiveTo: "2025-09-20"})
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestActiveOnUsesInclusiveBounds(t *testing.T) {
	f := newEnrollmentFixture(t)
	_, courseID := f.seedBallet(t)

	to := date(2025, 9, 30)
	bounded := models.Enrollment{CourseID: courseID, StudentID: 2, EffectiveFrom: date(2025, 9, 15), EffectiveTo: &to, Status: models.EnrollmentStatusActive}
	require.NoError(t, f.enrollments.Create(context.Background(), &bounded))

	onStart, err := f.enrollmentSvc.ActiveOn(context.Background(), courseID, date(2025, 9, 15))
	require.NoError(t, err)
	require.Len(t, onStart, 2)

	onEnd, err := f.enrollmentSvc.ActiveOn(context.Background(), courseID, date(2025, 9, 30))
	require.NoError(t, err)
	require.Len(t, onEnd, 2)

	afterEnd, err := f.enrollmentSvc.ActiveOn(context.Background(), courseID, date(2025, 10, 1))
	require.NoError(t, err)
	require.Len(t, afterEnd, 1)

	before, err := f.enrollmentSvc.ActiveOn(context.Background(), courseID, date(2025, 9, 14))
	require.NoError(t, err)
	require.Len(t, before, 1)
}

func TestEnrollPushSurvivesInstanceFailures(t *testing.T) {
	f := newEnrollmentFixture(t)
	templateID, courseID := f.seedBallet(t)

	_, err := f.service.GetOrCreate(context.Background(), templateID, date(2025, 9, 15))
	require.NoError(t, err)

	// A failing roster write is logged and counted, never surfaced.
	f.instances.failUpdate = errTestBroken

	result, err := f.enrollmentSvc.Enroll(context.Background(), courseID, dto.EnrollRequest{StudentID: 2, EffectiveFrom: "2025-09-10"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Sync.Failed)
	require.Equal(t, 0, result.Sync.Synced)
}

var errTestBroken = errTest("storage broken")

type errTest string

func (e errTest) Error() string { return string(e) }

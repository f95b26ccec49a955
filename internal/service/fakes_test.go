package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryTemplateRepo struct {
	templates map[uint]models.ClassTemplate
	nextID    uint
	links     *memoryCourseRepo
}

func newMemoryTemplateRepo() *memoryTemplateRepo {
	return &memoryTemplateRepo{templates: make(map[uint]models.ClassTemplate), nextID: 1}
}

func (m *memoryTemplateRepo) List(ctx context.Context, businessID uint) ([]models.ClassTemplate, error) {
	results := make([]models.ClassTemplate, 0, len(m.templates))
	for _, template := range m.templates {
		if template.BusinessID == businessID {
			results = append(results, template)
		}
	}
	return results, nil
}

func (m *memoryTemplateRepo) GetByID(ctx context.Context, id uint) (models.ClassTemplate, error) {
	template, ok := m.templates[id]
	if !ok {
		return models.ClassTemplate{}, gorm.ErrRecordNotFound
	}
	return template, nil
}

func (m *memoryTemplateRepo) Create(ctx context.Context, template *models.ClassTemplate) error {
	template.ID = m.nextID
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	m.templates[m.nextID] = *template
	m.nextID++
	return nil
}

func (m *memoryTemplateRepo) Update(ctx context.Context, template *models.ClassTemplate) error {
	if _, ok := m.templates[template.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	template.UpdatedAt = time.Now()
	m.templates[template.ID] = *template
	return nil
}

func (m *memoryTemplateRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *memoryTemplateRepo) ReferenceCount(ctx context.Context, templateID uint) (int64, error) {
	if m.links == nil {
		return 0, nil
	}
	var count int64
	for _, course := range m.links.courses {
		for _, link := range course.Templates {
			if link.TemplateID == templateID {
				count++
			}
		}
	}
	return count, nil
}

type memoryCourseRepo struct {
	courses map[uint]models.Course
	nextID  uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) List(ctx context.Context, businessID uint) ([]models.Course, error) {
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		if course.BusinessID == businessID {
			results = append(results, course)
		}
	}
	return results, nil
}

func (m *memoryCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) Create(ctx context.Context, course *models.Course, templateIDs []uint) error {
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()
	course.Templates = nil
	for position, templateID := range templateIDs {
		course.Templates = append(course.Templates, models.CourseTemplate{
			CourseID:   course.ID,
			TemplateID: templateID,
			Position:   position,
		})
	}
	m.courses[m.nextID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(ctx context.Context, course *models.Course) error {
	stored, ok := m.courses[course.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	course.Templates = stored.Templates
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) ReplaceTemplates(ctx context.Context, courseID uint, templateIDs []uint) error {
	course, ok := m.courses[courseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	course.Templates = nil
	for position, templateID := range templateIDs {
		course.Templates = append(course.Templates, models.CourseTemplate{
			CourseID:   courseID,
			TemplateID: templateID,
			Position:   position,
		})
	}
	course.UpdatedAt = time.Now()
	m.courses[courseID] = course
	return nil
}

func (m *memoryCourseRepo) ListActiveByTemplate(ctx context.Context, templateID uint, day time.Time) ([]models.Course, error) {
	results := make([]models.Course, 0)
	for _, course := range m.courses {
		if course.Status != models.CourseStatusActive || !course.CoversDate(day) {
			continue
		}
		for _, link := range course.Templates {
			if link.TemplateID == templateID {
				results = append(results, course)
				break
			}
		}
	}
	return results, nil
}

func (m *memoryCourseRepo) AnyUpdatedSince(ctx context.Context, templateID uint, since time.Time) (bool, error) {
	for _, course := range m.courses {
		for _, link := range course.Templates {
			if link.TemplateID == templateID && course.UpdatedAt.After(since) {
				return true, nil
			}
		}
	}
	return false, nil
}

type memoryEnrollmentRepo struct {
	enrollments map[uint]models.Enrollment
	courses     *memoryCourseRepo
	nextID      uint
}

func newMemoryEnrollmentRepo(courses *memoryCourseRepo) *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{
		enrollments: make(map[uint]models.Enrollment),
		courses:     courses,
		nextID:      1,
	}
}

func (m *memoryEnrollmentRepo) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (m *memoryEnrollmentRepo) FindOpen(ctx context.Context, courseID, studentID uint) (models.Enrollment, error) {
	for _, enrollment := range m.enrollments {
		if enrollment.CourseID == courseID && enrollment.StudentID == studentID && enrollment.Open() {
			return enrollment, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = m.nextID
	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = time.Now()
	m.enrollments[m.nextID] = *enrollment
	m.nextID++
	return nil
}

func (m *memoryEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	enrollment.UpdatedAt = time.Now()
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *memoryEnrollmentRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, enrollment := range m.enrollments {
		if enrollment.CourseID == courseID {
			results = append(results, enrollment)
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) ActiveOnDate(ctx context.Context, courseID uint, day time.Time) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, enrollment := range m.enrollments {
		if enrollment.CourseID == courseID && enrollment.ActiveOn(day) {
			results = append(results, enrollment)
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) AnyUpdatedSinceForTemplate(ctx context.Context, templateID uint, since time.Time) (bool, error) {
	for _, enrollment := range m.enrollments {
		course, ok := m.courses.courses[enrollment.CourseID]
		if !ok {
			continue
		}
		for _, link := range course.Templates {
			if link.TemplateID == templateID && enrollment.UpdatedAt.After(since) {
				return true, nil
			}
		}
	}
	return false, nil
}

type memoryInstanceRepo struct {
	instances   map[uint]models.ClassInstance
	nextID      uint
	failCreate  error
	failUpdate  error
	createCalls int
	missFinds   int
}

func newMemoryInstanceRepo() *memoryInstanceRepo {
	return &memoryInstanceRepo{instances: make(map[uint]models.ClassInstance), nextID: 1}
}

func (m *memoryInstanceRepo) GetByID(ctx context.Context, id uint) (models.ClassInstance, error) {
	instance, ok := m.instances[id]
	if !ok {
		return models.ClassInstance{}, gorm.ErrRecordNotFound
	}
	return instance, nil
}

func (m *memoryInstanceRepo) FindByTemplateAndDay(ctx context.Context, templateID uint, dayStart, dayEnd time.Time) (models.ClassInstance, error) {
	if m.missFinds > 0 {
		m.missFinds--
		return models.ClassInstance{}, gorm.ErrRecordNotFound
	}
	for _, instance := range m.instances {
		if instance.TemplateID == nil || *instance.TemplateID != templateID {
			continue
		}
		if !instance.Date.Before(dayStart) && instance.Date.Before(dayEnd) {
			return instance, nil
		}
	}
	return models.ClassInstance{}, gorm.ErrRecordNotFound
}

func (m *memoryInstanceRepo) Create(ctx context.Context, instance *models.ClassInstance) error {
	m.createCalls++
	if m.failCreate != nil {
		err := m.failCreate
		m.failCreate = nil
		return err
	}
	if instance.TemplateID != nil {
		dayStart := DayOf(instance.Date)
		if _, err := m.FindByTemplateAndDay(ctx, *instance.TemplateID, dayStart, dayStart.Add(24*time.Hour)); err == nil {
			return gorm.ErrDuplicatedKey
		}
	}
	instance.ID = m.nextID
	instance.CreatedAt = time.Now()
	instance.UpdatedAt = time.Now()
	m.instances[m.nextID] = *instance
	m.nextID++
	return nil
}

func (m *memoryInstanceRepo) Update(ctx context.Context, instance *models.ClassInstance) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	if _, ok := m.instances[instance.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	instance.UpdatedAt = time.Now()
	m.instances[instance.ID] = *instance
	return nil
}

func (m *memoryInstanceRepo) ListFutureByTemplate(ctx context.Context, templateID uint, from time.Time) ([]models.ClassInstance, error) {
	results := make([]models.ClassInstance, 0)
	for _, instance := range m.instances {
		if instance.TemplateID == nil || *instance.TemplateID != templateID {
			continue
		}
		if !instance.Date.Before(from) {
			results = append(results, instance)
		}
	}
	return results, nil
}

func (m *memoryInstanceRepo) ListByBusinessBetween(ctx context.Context, businessID uint, from, to time.Time) ([]models.ClassInstance, error) {
	results := make([]models.ClassInstance, 0)
	for _, instance := range m.instances {
		if instance.BusinessID != businessID {
			continue
		}
		if !instance.Date.Before(from) && instance.Date.Before(to) {
			results = append(results, instance)
		}
	}
	return results, nil
}

type memoryAttendanceRepo struct {
	records map[uint]models.AttendanceRecord
	nextID  uint
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{records: make(map[uint]models.AttendanceRecord), nextID: 1}
}

func (m *memoryAttendanceRepo) Get(ctx context.Context, instanceID, studentID uint) (models.AttendanceRecord, error) {
	for _, record := range m.records {
		if record.InstanceID == instanceID && record.StudentID == studentID {
			return record, nil
		}
	}
	return models.AttendanceRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if existing, err := m.Get(ctx, record.InstanceID, record.StudentID); err == nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.UpdatedAt = time.Now()
		m.records[existing.ID] = *record
		return nil
	}
	record.ID = m.nextID
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	m.records[m.nextID] = *record
	m.nextID++
	return nil
}

func (m *memoryAttendanceRepo) Delete(ctx context.Context, instanceID, studentID uint) error {
	for id, record := range m.records {
		if record.InstanceID == instanceID && record.StudentID == studentID {
			delete(m.records, id)
			return nil
		}
	}
	return nil
}

func (m *memoryAttendanceRepo) ListByInstance(ctx context.Context, instanceID uint) ([]models.AttendanceRecord, error) {
	results := make([]models.AttendanceRecord, 0)
	for _, record := range m.records {
		if record.InstanceID == instanceID {
			results = append(results, record)
		}
	}
	return results, nil
}

type memoryTempStudentRepo struct {
	students map[uint]models.TempStudent
	nextID   uint
}

func newMemoryTempStudentRepo() *memoryTempStudentRepo {
	return &memoryTempStudentRepo{students: make(map[uint]models.TempStudent), nextID: 1}
}

func (m *memoryTempStudentRepo) GetByID(ctx context.Context, id uint) (models.TempStudent, error) {
	student, ok := m.students[id]
	if !ok {
		return models.TempStudent{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *memoryTempStudentRepo) Create(ctx context.Context, student *models.TempStudent) error {
	student.ID = m.nextID
	student.CreatedAt = time.Now()
	student.UpdatedAt = time.Now()
	m.students[m.nextID] = *student
	m.nextID++
	return nil
}

func (m *memoryTempStudentRepo) Update(ctx context.Context, student *models.TempStudent) error {
	if _, ok := m.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	student.UpdatedAt = time.Now()
	m.students[student.ID] = *student
	return nil
}

func (m *memoryTempStudentRepo) ListActiveByInstance(ctx context.Context, instanceID uint) ([]models.TempStudent, error) {
	results := make([]models.TempStudent, 0)
	for _, student := range m.students {
		if student.InstanceID == instanceID && student.Active {
			results = append(results, student)
		}
	}
	return results, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []RosterEvent
}

func (c *capturingPublisher) PublishRosterUpdate(_ context.Context, event RosterEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturingPublisher) reasons() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	reasons := make([]string, 0, len(c.events))
	for _, event := range c.events {
		reasons = append(reasons, event.Reason)
	}
	return reasons
}

package mocks

import (
	"context"
	"time"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/stretchr/testify/mock"
)

// DraftRepository is a mock for draft.Repository.
type DraftRepository struct {
	mock.Mock
}

func (m *DraftRepository) Get(ctx context.Context, tenantID string, key draft.Key) (*draft.Draft, error) {
	args := m.Called(ctx, tenantID, key)
	if d, ok := args.Get(0).(*draft.Draft); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DraftRepository) GetByID(ctx context.Context, tenantID, id string) (*draft.Draft, error) {
	args := m.Called(ctx, tenantID, id)
	if d, ok := args.Get(0).(*draft.Draft); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DraftRepository) Put(ctx context.Context, tenantID string, d *draft.Draft) error {
	args := m.Called(ctx, tenantID, d)
	return args.Error(0)
}

func (m *DraftRepository) ListBySubject(ctx context.Context, tenantID, subjectID string) ([]draft.Draft, error) {
	args := m.Called(ctx, tenantID, subjectID)
	if list, ok := args.Get(0).([]draft.Draft); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Committer is a mock for draft.Committer.
type Committer struct {
	mock.Mock
}

func (m *Committer) Commit(ctx context.Context, tenantID string, req careplan.CommitRequest) (string, error) {
	args := m.Called(ctx, tenantID, req)
	return args.String(0), args.Error(1)
}

// EventSink is a mock for draft.EventSink.
type EventSink struct {
	mock.Mock
}

func (m *EventSink) Publish(ctx context.Context, tenantID string, ev draft.Event) error {
	args := m.Called(ctx, tenantID, ev)
	return args.Error(0)
}

// SubjectRepository is a mock for subject.Repository.
type SubjectRepository struct {
	mock.Mock
}

func (m *SubjectRepository) Create(ctx context.Context, tenantID string, subj *subject.Subject) error {
	args := m.Called(ctx, tenantID, subj)
	return args.Error(0)
}

func (m *SubjectRepository) Get(ctx context.Context, tenantID, id string) (*subject.Subject, error) {
	args := m.Called(ctx, tenantID, id)
	if s, ok := args.Get(0).(*subject.Subject); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubjectRepository) List(ctx context.Context, tenantID string, opts subject.ListOptions) ([]subject.Subject, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]subject.Subject); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// PlanRepository is a mock for record.PlanRepository.
type PlanRepository struct {
	mock.Mock
}

func (m *PlanRepository) Create(ctx context.Context, tenantID string, plan *record.CarePlan) error {
	args := m.Called(ctx, tenantID, plan)
	return args.Error(0)
}

func (m *PlanRepository) Get(ctx context.Context, tenantID, id string) (*record.CarePlan, error) {
	args := m.Called(ctx, tenantID, id)
	if p, ok := args.Get(0).(*record.CarePlan); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlanRepository) Update(ctx context.Context, tenantID string, plan *record.CarePlan, expectedVersion int64) error {
	args := m.Called(ctx, tenantID, plan, expectedVersion)
	return args.Error(0)
}

func (m *PlanRepository) List(ctx context.Context, tenantID string, opts record.ListOptions) ([]record.CarePlan, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]record.CarePlan); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlanRepository) AddVersion(ctx context.Context, tenantID string, v *record.PlanVersion) error {
	args := m.Called(ctx, tenantID, v)
	return args.Error(0)
}

func (m *PlanRepository) ListVersions(ctx context.Context, tenantID, planID string) ([]record.PlanVersion, error) {
	args := m.Called(ctx, tenantID, planID)
	if list, ok := args.Get(0).([]record.PlanVersion); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// AssignmentRepository is a mock for record.AssignmentRepository.
type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) Get(ctx context.Context, tenantID, planID string) ([]careplan.StaffAssignment, error) {
	args := m.Called(ctx, tenantID, planID)
	if list, ok := args.Get(0).([]careplan.StaffAssignment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssignmentRepository) Replace(ctx context.Context, tenantID, planID string, assignments []careplan.StaffAssignment) error {
	args := m.Called(ctx, tenantID, planID, assignments)
	return args.Error(0)
}

// CounterRepository is a mock for record.CounterRepository.
type CounterRepository struct {
	mock.Mock
}

func (m *CounterRepository) Get(ctx context.Context, tenantID, planID string, kind careplan.CounterKind) (int, error) {
	args := m.Called(ctx, tenantID, planID, kind)
	return args.Int(0), args.Error(1)
}

func (m *CounterRepository) Set(ctx context.Context, tenantID, planID string, kind careplan.CounterKind, n int) error {
	args := m.Called(ctx, tenantID, planID, kind, n)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.WizardSession) error {
	args := m.Called(ctx, tenantID, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.WizardSession, error) {
	args := m.Called(ctx, tenantID, id)
	if s, ok := args.Get(0).(*session.WizardSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Touch(ctx context.Context, tenantID, id string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *SessionRepository) Close(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *SessionRepository) ListActive(ctx context.Context, tenantID, subjectID string) ([]session.WizardSession, error) {
	args := m.Called(ctx, tenantID, subjectID)
	if list, ok := args.Get(0).([]session.WizardSession); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

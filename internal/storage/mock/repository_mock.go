package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// --- OnboardingRepo Mock ---

// OnboardingRepoMock mocks the OnboardingRepo interface
type OnboardingRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *OnboardingRepoMock) Save(ctx context.Context, rec model.OnboardingRecord) (model.OnboardingRecord, bool, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.OnboardingRecord), args.Bool(1), args.Error(2)
}

// FindBySubmissionID mocks the FindBySubmissionID method
func (m *OnboardingRepoMock) FindBySubmissionID(ctx context.Context, submissionID string) (*model.OnboardingRecord, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingRecord), args.Error(1)
}

// List mocks the List method
func (m *OnboardingRepoMock) List(ctx context.Context, query model.ListQuery) ([]model.OnboardingRecord, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.OnboardingRecord), args.Get(1).(int64), args.Error(2)
}

// Delete mocks the Delete method
func (m *OnboardingRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- ContactFormRepo Mock ---

// ContactFormRepoMock mocks the ContactFormRepo interface
type ContactFormRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ContactFormRepoMock) Save(ctx context.Context, rec model.ContactFormRecord) (model.ContactFormRecord, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.ContactFormRecord), args.Error(1)
}

// List mocks the List method
func (m *ContactFormRepoMock) List(ctx context.Context, query model.ListQuery) ([]model.ContactFormRecord, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.ContactFormRecord), args.Get(1).(int64), args.Error(2)
}

// --- ConversionRepo Mock ---

// ConversionRepoMock mocks the ConversionRepo interface
type ConversionRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ConversionRepoMock) Save(ctx context.Context, rec model.ConversionRecord) (model.ConversionRecord, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.ConversionRecord), args.Error(1)
}

// --- Pinger Mock ---

// PingerMock mocks the Pinger interface
type PingerMock struct {
	mock.Mock
}

// Ping mocks the Ping method
func (m *PingerMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

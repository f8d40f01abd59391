package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/cache"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	storagemock "gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage/mock"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

type conversionWorkerMock struct {
	mock.Mock
}

func (m *conversionWorkerMock) SubmitTask(taskData ConversionTaskData) error {
	args := m.Called(taskData)
	return args.Error(0)
}

func (m *conversionWorkerMock) Stop() {
	m.Called()
}

type leadServiceFixture struct {
	svc         *LeadService
	onboardings *storagemock.OnboardingRepoMock
	contacts    *storagemock.ContactFormRepoMock
	conversions *storagemock.ConversionRepoMock
	worker      *conversionWorkerMock
	cache       *cache.SubmissionCache
	now         time.Time
}

func setupLeadService(t *testing.T) *leadServiceFixture {
	logger.Log = zaptest.NewLogger(t)

	f := &leadServiceFixture{
		onboardings: new(storagemock.OnboardingRepoMock),
		contacts:    new(storagemock.ContactFormRepoMock),
		conversions: new(storagemock.ConversionRepoMock),
		worker:      new(conversionWorkerMock),
		cache:       cache.NewSubmissionCache(1000, 0.001),
		now:         time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewLeadService(f.onboardings, f.contacts, f.conversions, f.cache, f.worker)
	f.svc.now = func() time.Time { return f.now }

	t.Cleanup(func() {
		f.onboardings.AssertExpectations(t)
		f.contacts.AssertExpectations(t)
		f.conversions.AssertExpectations(t)
		f.worker.AssertExpectations(t)
	})
	return f
}

func TestSaveOnboarding_CreatesAndEnqueuesConversion(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	stored := payload.ToRecord()
	stored.ID = 42

	f.onboardings.On("Save", mock.Anything, mock.MatchedBy(func(r model.OnboardingRecord) bool {
		return r.Email == payload.Email && r.SubmissionID != nil && *r.SubmissionID == payload.SubmissionID
	})).Return(stored, true, nil).Once()
	f.worker.On("SubmitTask", mock.MatchedBy(func(task ConversionTaskData) bool {
		return task.Record.ConversionType == model.ConversionOnboardingSubmitted &&
			task.Record.Email == payload.Email &&
			task.Record.Timestamp.Equal(f.now) &&
			task.Ctx != nil
	})).Return(nil).Once()

	saved, created, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), saved.ID)
	assert.Equal(t, cache.StatusMaybeSeen, f.cache.Check(payload.SubmissionID))
}

func TestSaveOnboarding_ValidationFailure(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	payload.Email = "not-an-email"
	payload.CompanyName = ""

	_, _, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))

	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "companyName")
	f.onboardings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveOnboarding_ReplayResolvedFromCache(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	existing := payload.ToRecord()
	existing.ID = 7
	f.cache.MarkSeen(payload.SubmissionID)

	f.onboardings.On("FindBySubmissionID", mock.Anything, payload.SubmissionID).Return(&existing, nil).Once()

	saved, created, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(7), saved.ID)
	f.worker.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestSaveOnboarding_CacheFalsePositiveFallsThroughToInsert(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	stored := payload.ToRecord()
	stored.ID = 9
	f.cache.MarkSeen(payload.SubmissionID)

	f.onboardings.On("FindBySubmissionID", mock.Anything, payload.SubmissionID).Return(nil, apperrors.ErrNotFound).Once()
	f.onboardings.On("Save", mock.Anything, mock.Anything).Return(stored, true, nil).Once()
	f.worker.On("SubmitTask", mock.Anything).Return(nil).Once()

	_, created, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), f.cache.GetStats().FalsePositives)
}

func TestSaveOnboarding_DuplicateFromDatabase(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	existing := payload.ToRecord()
	existing.ID = 3

	f.onboardings.On("Save", mock.Anything, mock.Anything).Return(existing, false, nil).Once()

	saved, created, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), saved.ID)
}

func TestSaveOnboarding_DatabaseError(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()

	f.onboardings.On("Save", mock.Anything, mock.Anything).
		Return(model.OnboardingRecord{}, false, apperrors.ErrDatabase).Once()

	_, _, err := f.svc.SaveOnboarding(context.Background(), *payload)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.Equal(t, cache.StatusNew, f.cache.Check(payload.SubmissionID))
}

func TestSaveOnboarding_WorkerFailureDoesNotFailRequest(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewOnboardingPayload()
	stored := payload.ToRecord()
	stored.ID = 11

	f.onboardings.On("Save", mock.Anything, mock.Anything).Return(stored, true, nil).Once()
	f.worker.On("SubmitTask", mock.Anything).Return(errors.New("conversion pool overload")).Once()

	_, created, err := f.svc.SaveOnboarding(context.Background(), *payload)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestListOnboardings_Pagination(t *testing.T) {
	f := setupLeadService(t)
	rows := []model.OnboardingRecord{*model.NewOnboardingRecord(), *model.NewOnboardingRecord()}

	f.onboardings.On("List", mock.Anything, model.ListQuery{Page: 1, Limit: 10}).Return(rows, int64(25), nil).Once()

	page, err := f.svc.ListOnboardings(context.Background(), model.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, model.Pagination{Page: 1, Limit: 10, Total: 25, Pages: 3}, page.Pagination)
}

func TestListOnboardings_Error(t *testing.T) {
	f := setupLeadService(t)
	f.onboardings.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), apperrors.ErrDatabase).Once()

	_, err := f.svc.ListOnboardings(context.Background(), model.ListQuery{Page: 2, Limit: 5})
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestDeleteOnboarding(t *testing.T) {
	f := setupLeadService(t)

	err := f.svc.DeleteOnboarding(context.Background(), model.DeleteOnboardingPayload{ID: 0})
	assert.True(t, apperrors.IsValidationError(err))

	f.onboardings.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	assert.NoError(t, f.svc.DeleteOnboarding(context.Background(), model.DeleteOnboardingPayload{ID: 5}))

	f.onboardings.On("Delete", mock.Anything, int64(6)).Return(apperrors.ErrNotFound).Once()
	assert.ErrorIs(t, f.svc.DeleteOnboarding(context.Background(), model.DeleteOnboardingPayload{ID: 6}), apperrors.ErrNotFound)
}

func TestSaveContact(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewContactPayload()
	payload.SubmittedAt = ""

	f.contacts.On("Save", mock.Anything, mock.MatchedBy(func(r model.ContactFormRecord) bool {
		return r.Email == payload.Email && r.SubmittedAt == "2025-03-01T10:00:00.000Z"
	})).Return(model.ContactFormRecord{ID: 15}, nil).Once()

	saved, err := f.svc.SaveContact(context.Background(), *payload)
	require.NoError(t, err)
	assert.Equal(t, int64(15), saved.ID)
}

func TestSaveContact_ValidationFailure(t *testing.T) {
	f := setupLeadService(t)
	payload := model.NewContactPayload()
	payload.Phone = "123"
	payload.Message = "short"

	_, err := f.svc.SaveContact(context.Background(), *payload)
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "must contain exactly 10 digits", fe["phone"])
	assert.Contains(t, fe, "message")
}

func TestListContacts(t *testing.T) {
	f := setupLeadService(t)
	q := model.ListQuery{Page: 2, Limit: 20, Filters: model.ListFilters{UTMSource: "google"}}

	f.contacts.On("List", mock.Anything, q).Return([]model.ContactFormRecord{}, int64(21), nil).Once()

	page, err := f.svc.ListContacts(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 2, page.Pagination.Pages)
}

func TestSaveConversion(t *testing.T) {
	f := setupLeadService(t)
	payload := model.ConversionPayload{
		UserData: model.ConversionUser{
			FirstName:   "Jane",
			LastName:    "Doe",
			Email:       "jane@acme.com",
			CompanyName: "Acme",
		},
		UTMData:        model.UTMParams{Source: "google", Medium: "cpc", Campaign: "spring"},
		ConversionType: model.ConversionDashboardVisit,
	}

	f.conversions.On("Save", mock.Anything, mock.MatchedBy(func(r model.ConversionRecord) bool {
		return r.UTMSource == "google" && r.Timestamp.Equal(f.now) && r.ConversionType == model.ConversionDashboardVisit
	})).Return(model.ConversionRecord{ID: 99, ConversionType: model.ConversionDashboardVisit}, nil).Once()

	saved, err := f.svc.SaveConversion(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, int64(99), saved.ID)

	_, err = f.svc.SaveConversion(context.Background(), model.ConversionPayload{})
	assert.True(t, apperrors.IsValidationError(err))
}

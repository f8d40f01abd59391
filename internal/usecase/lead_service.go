package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/cache"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/requestctx"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// LeadService implements the database backed proxy services.
type LeadService struct {
	onboardingRepo   storage.OnboardingRepo
	contactRepo      storage.ContactFormRepo
	conversionRepo   storage.ConversionRepo
	submissions      *cache.SubmissionCache
	conversionWorker IConversionWorker // optional
	now              func() time.Time
}

// NewLeadService creates a new lead service. submissions and conversionWorker may be nil.
func NewLeadService(
	onboardingRepo storage.OnboardingRepo,
	contactRepo storage.ContactFormRepo,
	conversionRepo storage.ConversionRepo,
	submissions *cache.SubmissionCache,
	conversionWorker IConversionWorker,
) *LeadService {
	return &LeadService{
		onboardingRepo:   onboardingRepo,
		contactRepo:      contactRepo,
		conversionRepo:   conversionRepo,
		submissions:      submissions,
		conversionWorker: conversionWorker,
		now:              utils.Now,
	}
}

// SaveOnboarding validates and stores a lead. A repeated submission id resolves
// to the stored row with created=false and no second conversion.
func (s *LeadService) SaveOnboarding(ctx context.Context, payload model.OnboardingPayload) (model.OnboardingRecord, bool, error) {
	log := logger.FromContext(ctx)

	if err := validator.ValidateFields(payload); err != nil {
		log.Info("Onboarding payload rejected", zap.Error(err))
		return model.OnboardingRecord{}, false, err
	}

	rec := payload.ToRecord()

	if existing, ok := s.lookupKnownSubmission(ctx, payload.SubmissionID); ok {
		observer.IncDuplicateSubmission()
		log.Info("Onboarding submission replayed", zap.String("submission_id", payload.SubmissionID), zap.Int64("id", existing.ID))
		return *existing, false, nil
	}

	saved, created, err := s.onboardingRepo.Save(ctx, rec)
	if err != nil {
		return model.OnboardingRecord{}, false, err
	}
	if s.submissions != nil {
		s.submissions.MarkSeen(payload.SubmissionID)
	}

	if !created {
		observer.IncDuplicateSubmission()
		return saved, false, nil
	}

	log.Info("Onboarding saved",
		zap.Int64("id", saved.ID),
		zap.String("email", utils.MaskEmail(saved.Email)),
		zap.String("utm_source", saved.UTMSource),
	)
	s.enqueueConversion(ctx, model.ConversionFromOnboarding(saved, s.now()))

	return saved, true, nil
}

// lookupKnownSubmission consults the bloom cache and, on a possible hit, the database.
func (s *LeadService) lookupKnownSubmission(ctx context.Context, submissionID string) (*model.OnboardingRecord, bool) {
	if s.submissions == nil || submissionID == "" {
		return nil, false
	}
	if s.submissions.Check(submissionID) != cache.StatusMaybeSeen {
		return nil, false
	}

	existing, err := s.onboardingRepo.FindBySubmissionID(ctx, submissionID)
	switch {
	case err == nil:
		return existing, true
	case errors.Is(err, apperrors.ErrNotFound):
		s.submissions.RecordFalsePositive()
	default:
		// the insert below is idempotent, so a failed lookup is not fatal
		logger.FromContext(ctx).Warn("Submission lookup failed, falling back to insert", zap.Error(err))
	}
	return nil, false
}

func (s *LeadService) enqueueConversion(ctx context.Context, rec model.ConversionRecord) {
	if s.conversionWorker == nil {
		return
	}
	task := ConversionTaskData{Ctx: context.WithoutCancel(ctx), Record: rec}
	if err := s.conversionWorker.SubmitTask(task); err != nil {
		logger.FromContext(ctx).Warn("Conversion not recorded", zap.Error(err))
	}
}

// ListOnboardings returns one page of leads.
func (s *LeadService) ListOnboardings(ctx context.Context, query model.ListQuery) (model.OnboardingPage, error) {
	query = query.Normalize()

	rows, total, err := s.onboardingRepo.List(ctx, query)
	if err != nil {
		return model.OnboardingPage{}, err
	}
	return model.OnboardingPage{
		Data:       rows,
		Pagination: model.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// DeleteOnboarding removes a lead by id.
func (s *LeadService) DeleteOnboarding(ctx context.Context, payload model.DeleteOnboardingPayload) error {
	if err := validator.ValidateFields(payload); err != nil {
		return err
	}
	if err := s.onboardingRepo.Delete(ctx, payload.ID); err != nil {
		return err
	}
	subject, _ := requestctx.AdminFromContext(ctx)
	logger.FromContext(ctx).Info("Onboarding deleted", zap.Int64("id", payload.ID), zap.String("admin", subject))
	return nil
}

// SaveContact validates and stores a contact form submission.
func (s *LeadService) SaveContact(ctx context.Context, payload model.ContactPayload) (model.ContactFormRecord, error) {
	if err := validator.ValidateFields(payload); err != nil {
		logger.FromContext(ctx).Info("Contact payload rejected", zap.Error(err))
		return model.ContactFormRecord{}, err
	}
	if payload.SubmittedAt == "" {
		payload.SubmittedAt = utils.FormatISO8601Millis(s.now())
	}

	saved, err := s.contactRepo.Save(ctx, payload.ToRecord())
	if err != nil {
		return model.ContactFormRecord{}, err
	}
	logger.FromContext(ctx).Info("Contact form saved", zap.Int64("id", saved.ID), zap.String("email", utils.MaskEmail(saved.Email)))
	return saved, nil
}

// ListContacts returns one page of contact submissions.
func (s *LeadService) ListContacts(ctx context.Context, query model.ListQuery) (model.ContactPage, error) {
	query = query.Normalize()

	rows, total, err := s.contactRepo.List(ctx, query)
	if err != nil {
		return model.ContactPage{}, err
	}
	return model.ContactPage{
		Data:       rows,
		Pagination: model.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// SaveConversion stores a conversion sent by the client.
func (s *LeadService) SaveConversion(ctx context.Context, payload model.ConversionPayload) (model.ConversionRecord, error) {
	if err := validator.ValidateFields(payload); err != nil {
		return model.ConversionRecord{}, err
	}

	saved, err := s.conversionRepo.Save(ctx, payload.ToRecord(s.now()))
	if err != nil {
		return model.ConversionRecord{}, fmt.Errorf("saving conversion: %w", err)
	}
	logger.FromContext(ctx).Info("Conversion saved", zap.Int64("id", saved.ID), zap.String("conversion_type", saved.ConversionType))
	return saved, nil
}

package storage

import (
	"context"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// OnboardingRepoAdapter adapts the PostgresRepo to the OnboardingRepo interface
type OnboardingRepoAdapter struct {
	postgres *PostgresRepo
}

// NewOnboardingRepoAdapter creates a new onboarding repository adapter
func NewOnboardingRepoAdapter(postgres *PostgresRepo) OnboardingRepo {
	return &OnboardingRepoAdapter{postgres: postgres}
}

// Save saves a lead
func (a *OnboardingRepoAdapter) Save(ctx context.Context, rec model.OnboardingRecord) (model.OnboardingRecord, bool, error) {
	return a.postgres.SaveOnboarding(ctx, rec)
}

// FindBySubmissionID finds a lead by its client submission id
func (a *OnboardingRepoAdapter) FindBySubmissionID(ctx context.Context, submissionID string) (*model.OnboardingRecord, error) {
	return a.postgres.FindOnboardingBySubmissionID(ctx, submissionID)
}

// List lists leads
func (a *OnboardingRepoAdapter) List(ctx context.Context, query model.ListQuery) ([]model.OnboardingRecord, int64, error) {
	return a.postgres.ListOnboardings(ctx, query)
}

// Delete deletes a lead
func (a *OnboardingRepoAdapter) Delete(ctx context.Context, id int64) error {
	return a.postgres.DeleteOnboarding(ctx, id)
}

// ContactFormRepoAdapter adapts the PostgresRepo to the ContactFormRepo interface
type ContactFormRepoAdapter struct {
	postgres *PostgresRepo
}

// NewContactFormRepoAdapter creates a new contact form repository adapter
func NewContactFormRepoAdapter(postgres *PostgresRepo) ContactFormRepo {
	return &ContactFormRepoAdapter{postgres: postgres}
}

// Save saves a contact form submission
func (a *ContactFormRepoAdapter) Save(ctx context.Context, rec model.ContactFormRecord) (model.ContactFormRecord, error) {
	return a.postgres.SaveContactForm(ctx, rec)
}

// List lists contact form submissions
func (a *ContactFormRepoAdapter) List(ctx context.Context, query model.ListQuery) ([]model.ContactFormRecord, int64, error) {
	return a.postgres.ListContactForms(ctx, query)
}

// ConversionRepoAdapter adapts the PostgresRepo to the ConversionRepo interface
type ConversionRepoAdapter struct {
	postgres *PostgresRepo
}

// NewConversionRepoAdapter creates a new conversion repository adapter
func NewConversionRepoAdapter(postgres *PostgresRepo) ConversionRepo {
	return &ConversionRepoAdapter{postgres: postgres}
}

// Save saves a conversion
func (a *ConversionRepoAdapter) Save(ctx context.Context, rec model.ConversionRecord) (model.ConversionRecord, error) {
	return a.postgres.SaveConversion(ctx, rec)
}

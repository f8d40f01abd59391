package storage

import (
	"context"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// OnboardingRepo defines lead storage operations
type OnboardingRepo interface {
	// Save inserts a lead; created is false when the submission id was already stored.
	Save(ctx context.Context, rec model.OnboardingRecord) (saved model.OnboardingRecord, created bool, err error)
	FindBySubmissionID(ctx context.Context, submissionID string) (*model.OnboardingRecord, error)
	List(ctx context.Context, query model.ListQuery) ([]model.OnboardingRecord, int64, error)
	Delete(ctx context.Context, id int64) error
}

// ContactFormRepo defines contact form storage operations
type ContactFormRepo interface {
	Save(ctx context.Context, rec model.ContactFormRecord) (model.ContactFormRecord, error)
	List(ctx context.Context, query model.ListQuery) ([]model.ContactFormRecord, int64, error)
}

// ConversionRepo defines conversion storage operations
type ConversionRepo interface {
	Save(ctx context.Context, rec model.ConversionRecord) (model.ConversionRecord, error)
}

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// SaveOnboarding inserts a lead. When the record carries a submission id that
// already exists, nothing is written and the existing row is returned with
// created=false.
func (r *PostgresRepo) SaveOnboarding(ctx context.Context, rec model.OnboardingRecord) (model.OnboardingRecord, bool, error) {
	rec.ID = 0
	created := true

	operation := func() error {
		q := r.db.WithContext(ctx)
		if rec.SubmissionID != nil {
			q = q.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "submission_id"}},
				DoNothing: true,
			})
		}
		result := q.Create(&rec)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected > 0
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, writeRetryMaxElapsedTime), "SaveOnboarding", operation)
	observer.ObserveDbOperationDuration("insert", "onboarding", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save onboarding", zap.Error(err), zap.String("email", utils.MaskEmail(rec.Email)))
		return model.OnboardingRecord{}, false, checkConstraintViolation(err)
	}

	if !created {
		existing, findErr := r.FindOnboardingBySubmissionID(ctx, *rec.SubmissionID)
		if findErr != nil {
			return model.OnboardingRecord{}, false, findErr
		}
		logger.FromContext(ctx).Info("Onboarding submission already stored",
			zap.String("submission_id", *rec.SubmissionID),
			zap.Int64("id", existing.ID),
		)
		return *existing, false, nil
	}

	return rec, true, nil
}

// FindOnboardingBySubmissionID returns the lead stored for a client submission id.
func (r *PostgresRepo) FindOnboardingBySubmissionID(ctx context.Context, submissionID string) (*model.OnboardingRecord, error) {
	var rec model.OnboardingRecord

	operation := func() error {
		return r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&rec).Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindOnboardingBySubmissionID", operation)
	observer.ObserveDbOperationDuration("find", "onboarding", time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: onboarding with submission id %s", apperrors.ErrNotFound, submissionID)
		}
		return nil, checkConstraintViolation(err)
	}
	return &rec, nil
}

// ListOnboardings returns one page of leads, newest first, plus the number of
// rows matching the filters.
func (r *PostgresRepo) ListOnboardings(ctx context.Context, query model.ListQuery) ([]model.OnboardingRecord, int64, error) {
	query = query.Normalize()

	var (
		total int64
		rows  []model.OnboardingRecord
	)

	operation := func() error {
		countQ := applyUTMFilters(r.db.WithContext(ctx).Model(&model.OnboardingRecord{}), query.Filters)
		if err := countQ.Count(&total).Error; err != nil {
			return err
		}
		rows = rows[:0]
		q := applyUTMFilters(r.db.WithContext(ctx).Model(&model.OnboardingRecord{}), query.Filters)
		return q.Order("id DESC").Limit(query.Limit).Offset(query.Offset()).Find(&rows).Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListOnboardings", operation)
	observer.ObserveDbOperationDuration("list", "onboarding", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list onboardings", zap.Error(err))
		return nil, 0, checkConstraintViolation(err)
	}
	if rows == nil {
		rows = []model.OnboardingRecord{}
	}
	return rows, total, nil
}

// DeleteOnboarding removes a lead by id.
func (r *PostgresRepo) DeleteOnboarding(ctx context.Context, id int64) error {
	var affected int64

	operation := func() error {
		result := r.db.WithContext(ctx).Delete(&model.OnboardingRecord{}, id)
		affected = result.RowsAffected
		return result.Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, writeRetryMaxElapsedTime), "DeleteOnboarding", operation)
	observer.ObserveDbOperationDuration("delete", "onboarding", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to delete onboarding", zap.Error(err), zap.Int64("id", id))
		return checkConstraintViolation(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: onboarding %d", apperrors.ErrNotFound, id)
	}
	return nil
}

package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// --- Contact Form Repository Methods ---

// SaveContactForm appends a contact form submission and returns it with its id.
func (r *PostgresRepo) SaveContactForm(ctx context.Context, rec model.ContactFormRecord) (model.ContactFormRecord, error) {
	rec.ID = 0

	operation := func() error {
		return r.db.WithContext(ctx).Create(&rec).Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, writeRetryMaxElapsedTime), "SaveContactForm", operation)
	observer.ObserveDbOperationDuration("insert", "contact_form", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save contact form",
			zap.Error(err),
			zap.String("email", utils.MaskEmail(rec.Email)),
			zap.String("phone", utils.MaskPhone(rec.Phone)),
		)
		return model.ContactFormRecord{}, checkConstraintViolation(err)
	}
	return rec, nil
}

// ListContactForms returns one page of contact submissions, newest first.
func (r *PostgresRepo) ListContactForms(ctx context.Context, query model.ListQuery) ([]model.ContactFormRecord, int64, error) {
	query = query.Normalize()

	var (
		total int64
		rows  []model.ContactFormRecord
	)

	operation := func() error {
		countQ := applyUTMFilters(r.db.WithContext(ctx).Model(&model.ContactFormRecord{}), query.Filters)
		if err := countQ.Count(&total).Error; err != nil {
			return err
		}
		rows = rows[:0]
		q := applyUTMFilters(r.db.WithContext(ctx).Model(&model.ContactFormRecord{}), query.Filters)
		return q.Order("id DESC").Limit(query.Limit).Offset(query.Offset()).Find(&rows).Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListContactForms", operation)
	observer.ObserveDbOperationDuration("list", "contact_form", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list contact forms", zap.Error(err))
		return nil, 0, checkConstraintViolation(err)
	}
	if rows == nil {
		rows = []model.ContactFormRecord{}
	}
	return rows, total, nil
}

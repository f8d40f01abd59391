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

// SaveConversion appends a conversion row and returns it with its id.
func (r *PostgresRepo) SaveConversion(ctx context.Context, rec model.ConversionRecord) (model.ConversionRecord, error) {
	rec.ID = 0
	if rec.Timestamp.IsZero() {
		rec.Timestamp = utils.Now()
	}

	operation := func() error {
		return r.db.WithContext(ctx).Create(&rec).Error
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, defaultRetryMaxElapsedTime), "SaveConversion", operation)
	observer.ObserveDbOperationDuration("insert", "conversion", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save conversion",
			zap.Error(err),
			zap.String("conversion_type", rec.ConversionType),
		)
		return model.ConversionRecord{}, checkConstraintViolation(err)
	}
	return rec, nil
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

const insertConversionPattern = `INSERT INTO "conversions" \(.*"conversion_type".*"metadata".*\) VALUES .* RETURNING "id"`

func TestPostgresRepo_SaveConversion_StampsMissingTimestamp(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := *model.NewConversionRecord()
	rec.Timestamp = time.Time{}

	mock.ExpectQuery(insertConversionPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	saved, err := repo.SaveConversion(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(4), saved.ID)
	assert.Equal(t, model.ConversionOnboardingSubmitted, saved.ConversionType)
	assert.False(t, saved.Timestamp.IsZero())
}

func TestPostgresRepo_SaveConversion_Error(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(insertConversionPattern).WillReturnError(errors.New("permission denied for table conversions"))

	_, err := repo.SaveConversion(context.Background(), *model.NewConversionRecord())
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

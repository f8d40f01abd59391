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

const (
	insertOnboardingPattern   = `INSERT INTO "onboardings" \(.*"company_name".*\) VALUES \(.*\) RETURNING "id"`
	upsertOnboardingPattern   = `INSERT INTO "onboardings" .* ON CONFLICT \("submission_id"\) DO NOTHING RETURNING "id"`
	selectBySubmissionPattern = `SELECT \* FROM "onboardings" WHERE submission_id = \$1`
)

func TestPostgresRepo_SaveOnboarding_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := model.NewOnboardingPayload(&model.OnboardingPayload{SubmissionID: ""}).ToRecord()

	mock.ExpectQuery(insertOnboardingPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	saved, created, err := repo.SaveOnboarding(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, rec.CompanyName, saved.CompanyName)
}

func TestPostgresRepo_SaveOnboarding_NewSubmissionID(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := model.NewOnboardingPayload().ToRecord()
	require.NotNil(t, rec.SubmissionID)

	mock.ExpectQuery(upsertOnboardingPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	saved, created, err := repo.SaveOnboarding(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12), saved.ID)
}

func TestPostgresRepo_SaveOnboarding_DuplicateSubmissionReturnsExisting(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := model.NewOnboardingPayload().ToRecord()
	now := time.Now()

	mock.ExpectQuery(upsertOnboardingPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(selectBySubmissionPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "email", "submission_id", "created_at"}).
			AddRow(7, rec.CompanyName, rec.Email, *rec.SubmissionID, now))

	saved, created, err := repo.SaveOnboarding(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(7), saved.ID)
}

func TestPostgresRepo_SaveOnboarding_RetriesTransientError(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := model.NewOnboardingPayload().ToRecord()

	mock.ExpectQuery(upsertOnboardingPattern).WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectQuery(upsertOnboardingPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	saved, created, err := repo.SaveOnboarding(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), saved.ID)
}

func TestPostgresRepo_SaveOnboarding_PermanentError(t *testing.T) {
	repo, mock := newTestRepo(t)
	rec := model.NewOnboardingPayload(&model.OnboardingPayload{SubmissionID: ""}).ToRecord()

	mock.ExpectQuery(insertOnboardingPattern).WillReturnError(errors.New("relation does not exist"))

	_, _, err := repo.SaveOnboarding(context.Background(), rec)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestPostgresRepo_FindOnboardingBySubmissionID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(selectBySubmissionPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindOnboardingBySubmissionID(context.Background(), "missing")
	assert.Nil(t, found)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresRepo_ListOnboardings_WithFilters(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "onboardings" WHERE utm_source LIKE \$1 AND utm_campaign LIKE \$2`).
		WithArgs("%google%", "%spring%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`SELECT \* FROM "onboardings" WHERE utm_source LIKE \$1 AND utm_campaign LIKE \$2 ORDER BY id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "utm_source", "utm_campaign", "created_at"}).
			AddRow(25, "Acme", "google", "spring", now).
			AddRow(24, "Globex", "google", "spring", now))

	rows, total, err := repo.ListOnboardings(context.Background(), model.ListQuery{
		Page:    1,
		Limit:   10,
		Filters: model.ListFilters{UTMSource: "google", UTMCampaign: "spring"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(25), rows[0].ID)
	assert.Equal(t, "Globex", rows[1].CompanyName)
}

func TestPostgresRepo_ListOnboardings_EmptyIsNotNil(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "onboardings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "onboardings" ORDER BY id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, total, err := repo.ListOnboardings(context.Background(), model.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestPostgresRepo_DeleteOnboarding(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM "onboardings" WHERE "onboardings"."id" = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteOnboarding(context.Background(), 5))

	mock.ExpectExec(`DELETE FROM "onboardings" WHERE "onboardings"."id" = \$1`).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteOnboarding(context.Background(), 6), apperrors.ErrNotFound)
}

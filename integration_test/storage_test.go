//go:build integration

package integration_test

import (
	"sync"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// StorageIntegrationSuite exercises the repository against a real database.
type StorageIntegrationSuite struct {
	BaseIntegrationSuite
}

func (s *StorageIntegrationSuite) TestSaveOnboarding_PersistsAllColumns() {
	payload := model.NewOnboardingPayload()
	saved, created, err := s.Repo.SaveOnboarding(s.Ctx, payload.ToRecord())
	s.Require().NoError(err)
	s.True(created)
	s.NotZero(saved.ID)

	found, err := s.Repo.FindOnboardingBySubmissionID(s.Ctx, payload.SubmissionID)
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)
	s.Equal(payload.CompanyName, found.CompanyName)
	s.Equal(payload.Email, found.Email)
	s.Equal(payload.UTMParams.Source, found.UTMSource)
	s.False(found.CreatedAt.IsZero())
}

func (s *StorageIntegrationSuite) TestSaveOnboarding_ConcurrentReplaysStoreOneRow() {
	payload := model.NewOnboardingPayload()

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int64]int{}
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, isNew, err := s.Repo.SaveOnboarding(s.Ctx, payload.ToRecord())
			s.NoError(err)
			mu.Lock()
			defer mu.Unlock()
			ids[saved.ID]++
			if isNew {
				created++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	s.Len(ids, 1)
	s.Equal(1, s.CountRows(`SELECT count(*) FROM onboardings WHERE submission_id = $1`, payload.SubmissionID))
}

func (s *StorageIntegrationSuite) TestListOnboardings_FiltersAndPages() {
	for i := 0; i < 5; i++ {
		p := model.NewOnboardingPayload(&model.OnboardingPayload{
			UTMParams:    model.UTMParams{Source: "google", Medium: "cpc", Campaign: "spring-sale"},
			SubmissionID: "",
		})
		_, _, err := s.Repo.SaveOnboarding(s.Ctx, p.ToRecord())
		s.Require().NoError(err)
	}
	for i := 0; i < 3; i++ {
		p := model.NewOnboardingPayload(&model.OnboardingPayload{
			UTMParams:    model.UTMParams{Source: "newsletter", Medium: "email", Campaign: "weekly"},
			SubmissionID: "",
		})
		_, _, err := s.Repo.SaveOnboarding(s.Ctx, p.ToRecord())
		s.Require().NoError(err)
	}

	rows, total, err := s.Repo.ListOnboardings(s.Ctx, model.ListQuery{
		Page:    2,
		Limit:   2,
		Filters: model.ListFilters{UTMSource: "goog", UTMCampaign: "spring"},
	})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Require().Len(rows, 2)
	s.Greater(rows[0].ID, rows[1].ID)
	for _, r := range rows {
		s.Equal("google", r.UTMSource)
	}

	_, total, err = s.Repo.ListOnboardings(s.Ctx, model.ListQuery{})
	s.Require().NoError(err)
	s.Equal(int64(8), total)
}

func (s *StorageIntegrationSuite) TestDeleteOnboarding() {
	saved, _, err := s.Repo.SaveOnboarding(s.Ctx, model.NewOnboardingPayload().ToRecord())
	s.Require().NoError(err)

	s.NoError(s.Repo.DeleteOnboarding(s.Ctx, saved.ID))
	s.ErrorIs(s.Repo.DeleteOnboarding(s.Ctx, saved.ID), apperrors.ErrNotFound)
	s.Equal(0, s.CountRows(`SELECT count(*) FROM onboardings`))
}

func (s *StorageIntegrationSuite) TestContactForms_SaveAndList() {
	for i := 0; i < 3; i++ {
		_, err := s.Repo.SaveContactForm(s.Ctx, model.NewContactPayload().ToRecord())
		s.Require().NoError(err)
	}

	rows, total, err := s.Repo.ListContactForms(s.Ctx, model.ListQuery{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(rows, 3)
}

func (s *StorageIntegrationSuite) TestSaveConversion() {
	rec := model.NewConversionRecord()
	saved, err := s.Repo.SaveConversion(s.Ctx, *rec)
	s.Require().NoError(err)
	s.NotZero(saved.ID)
	s.Equal(1, s.CountRows(`SELECT count(*) FROM conversions WHERE conversion_type = $1`, rec.ConversionType))
}

func (s *StorageIntegrationSuite) TestPing() {
	s.NoError(s.Repo.Ping(s.Ctx))
}

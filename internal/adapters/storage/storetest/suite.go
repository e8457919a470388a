// Package storetest tiene la suite de contrato que deben pasar todos los
// stores de regimens (memory, sqlite, postgres).
package storetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/platform/dateutil"
)

// Factory crea un store vacío que usa now como reloj.
type Factory func(now func() time.Time) regimens.Repository

type RepositorySuite struct {
	suite.Suite

	NewRepo Factory

	repo regimens.Repository
	ctx  context.Context
	now  time.Time
	seq  int
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 12, 22, 9, 15, 0, 0, time.UTC)
	s.seq = 0
	s.repo = s.NewRepo(func() time.Time { return s.now })
}

func (s *RepositorySuite) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%03d", s.seq)
}

func (s *RepositorySuite) regimen(externalID string) *regimens.PillRegimen {
	day := dateutil.DateOf(s.now)
	p, err := regimens.NewPillRegimen(externalID, 5, 20, []regimens.DosageSpec{
		{Hour: 20, Minute: 5, Medicines: []regimens.MedicineSpec{
			{Name: "paracetamol", StartDate: day, EndDate: dateutil.AddDays(day, 3)},
			{Name: "ibuprofeno", StartDate: dateutil.AddDays(day, 1), EndDate: dateutil.AddDays(day, 5)},
		}},
		{Hour: 8, Minute: 30, Medicines: []regimens.MedicineSpec{
			{Name: "omeprazol", StartDate: day, EndDate: dateutil.AddDays(day, 10)},
		}},
	})
	s.Require().NoError(err)
	p.AssignIdentity(s.nextID)
	return p
}

func (s *RepositorySuite) TestAddThenGetRoundTrips() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)

	s.Equal(p.ID, got.ID)
	s.Equal("patient-1", got.ExternalID)
	s.Equal(5, got.ReminderRepeatWindowInMinutes)
	s.Equal(20, got.ReminderRepeatCount)
	s.Require().Len(got.Dosages, 2)

	for _, want := range p.Dosages {
		d, err := got.GetDosage(want.ID)
		s.Require().NoError(err)
		s.Equal(want.JobID, d.JobID)
		s.Equal(want.Time, d.Time)
		s.Require().Len(d.Medicines, len(want.Medicines))
		for i, m := range want.Medicines {
			s.Equal(m.Name, d.Medicines[i].Name)
			s.True(m.StartDate.Equal(d.Medicines[i].StartDate), "start of %s", m.Name)
			s.True(m.EndDate.Equal(d.Medicines[i].EndDate), "end of %s", m.Name)
		}
		s.Nil(d.ResponseLastCapturedDate)
	}
	s.True(p.StartDate().Equal(got.StartDate()))
	s.True(p.EndDate().Equal(got.EndDate()))
}

func (s *RepositorySuite) TestGetUnknownIsNotFound() {
	_, err := s.repo.Get(s.ctx, "missing")
	s.ErrorIs(err, regimens.ErrNotFound)
}

func (s *RepositorySuite) TestFindByExternalID() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))
	s.Require().NoError(s.repo.Add(s.ctx, s.regimen("patient-2")))

	got, err := s.repo.FindByExternalID(s.ctx, "patient-1")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)

	_, err = s.repo.FindByExternalID(s.ctx, "nobody")
	s.ErrorIs(err, regimens.ErrNotFound)
}

func (s *RepositorySuite) TestAddRejectsSecondRegimenForExternalID() {
	s.Require().NoError(s.repo.Add(s.ctx, s.regimen("patient-1")))

	err := s.repo.Add(s.ctx, s.regimen("patient-1"))
	s.ErrorIs(err, regimens.ErrDuplicateExternalID)
}

func (s *RepositorySuite) TestRemoveFreesExternalID() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))

	s.Require().NoError(s.repo.Remove(s.ctx, p))

	_, err := s.repo.Get(s.ctx, p.ID)
	s.ErrorIs(err, regimens.ErrNotFound)
	_, err = s.repo.FindByExternalID(s.ctx, "patient-1")
	s.ErrorIs(err, regimens.ErrNotFound)

	// renew: la nueva generación reutiliza el external id
	s.NoError(s.repo.Add(s.ctx, s.regimen("patient-1")))
}

func (s *RepositorySuite) TestRemoveUnknownIsNotFound() {
	err := s.repo.Remove(s.ctx, s.regimen("patient-1"))
	s.ErrorIs(err, regimens.ErrNotFound)
}

func (s *RepositorySuite) TestListReturnsEveryRegimen() {
	all, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)

	b := s.regimen("patient-b")
	a := s.regimen("patient-a")
	s.Require().NoError(s.repo.Add(s.ctx, b))
	s.Require().NoError(s.repo.Add(s.ctx, a))

	all, err = s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a.ID, all[0].ID)
	s.Equal(b.ID, all[1].ID)
	s.Len(all[0].Dosages, 2)
	s.NotEmpty(all[0].Dosages[0].Medicines)
}

func (s *RepositorySuite) TestMedicinesFor() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))

	evening := p.SortedDosages()[1]
	names, err := s.repo.MedicinesFor(s.ctx, p.ID, evening.ID)
	s.Require().NoError(err)
	s.Equal([]string{"paracetamol", "ibuprofeno"}, names)

	_, err = s.repo.MedicinesFor(s.ctx, p.ID, "missing")
	s.ErrorIs(err, regimens.ErrNotFound)

	_, err = s.repo.MedicinesFor(s.ctx, "missing", evening.ID)
	s.ErrorIs(err, regimens.ErrNotFound)
}

func (s *RepositorySuite) TestStopTodaysRemindersMarksToday() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))
	morning := p.SortedDosages()[0]

	s.Require().NoError(s.repo.StopTodaysReminders(s.ctx, p.ID, morning.ID))

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	d, err := got.GetDosage(morning.ID)
	s.Require().NoError(err)
	s.Require().NotNil(d.ResponseLastCapturedDate)
	s.True(d.IsTodaysResponseCaptured(s.now))
	s.False(d.IsTodaysResponseCaptured(dateutil.AddDays(s.now, 1)))

	other, err := got.GetDosage(p.SortedDosages()[1].ID)
	s.Require().NoError(err)
	s.Nil(other.ResponseLastCapturedDate)

	// repetir el mismo día es idempotente
	s.NoError(s.repo.StopTodaysReminders(s.ctx, p.ID, morning.ID))
}

func (s *RepositorySuite) TestStopTodaysRemindersUnknownIsNotFound() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))

	s.ErrorIs(s.repo.StopTodaysReminders(s.ctx, p.ID, "missing"), regimens.ErrNotFound)
	s.ErrorIs(s.repo.StopTodaysReminders(s.ctx, "missing", p.Dosages[0].ID), regimens.ErrNotFound)
}

func (s *RepositorySuite) TestReturnedAggregateIsDetached() {
	p := s.regimen("patient-1")
	s.Require().NoError(s.repo.Add(s.ctx, p))

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	got.Dosages[0].Medicines[0].Name = "changed"
	got.ExternalID = "changed"

	again, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("patient-1", again.ExternalID)
	s.NotEqual("changed", again.Dosages[0].Medicines[0].Name)
}

package regimens

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-reminder/internal/platform/dateutil"
)

var day0 = time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)

func med(name string, fromDay, toDay int) MedicineSpec {
	return MedicineSpec{Name: name, StartDate: dateutil.AddDays(day0, fromDay), EndDate: dateutil.AddDays(day0, toDay)}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// dosageAt arma una dosis ya identificada, como la devolvería el store.
func dosageAt(id string, hour, minute int) *Dosage {
	return &Dosage{ID: id, JobID: "job-" + id, Time: DosageTime{Hour: hour, Minute: minute}}
}

func TestNewPillRegimen_DerivesEnvelopeAcrossAllDosages(t *testing.T) {
	p, err := NewPillRegimen("patient-1", 5, 20, []DosageSpec{
		{Hour: 9, Minute: 5, Medicines: []MedicineSpec{med("m1", 1, 2)}},
		{Hour: 21, Minute: 0, Medicines: []MedicineSpec{med("m2", 0, 1), med("m3", 2, 4)}},
	})
	require.NoError(t, err)

	assert.Equal(t, day0, p.StartDate())
	assert.Equal(t, dateutil.AddDays(day0, 4), p.EndDate())

	// la ventana de cada dosis es sólo la de sus medicamentos
	assert.Equal(t, dateutil.AddDays(day0, 1), p.Dosages[0].StartDate())
	assert.Equal(t, dateutil.AddDays(day0, 2), p.Dosages[0].EndDate())
}

func TestNewPillRegimen_NormalizesDatesAndTrimsNames(t *testing.T) {
	p, err := NewPillRegimen(" patient-1 ", 0, 0, []DosageSpec{
		{Hour: 8, Minute: 0, Medicines: []MedicineSpec{{
			Name:      "  paracetamol ",
			StartDate: day0.Add(15 * time.Hour),
			EndDate:   day0.Add(30 * time.Hour),
		}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "patient-1", p.ExternalID)
	m := p.Dosages[0].Medicines[0]
	assert.Equal(t, "paracetamol", m.Name)
	assert.Equal(t, day0, m.StartDate)
	assert.Equal(t, dateutil.AddDays(day0, 1), m.EndDate)
	assert.Empty(t, p.ID, "identity is assigned in a separate step")
}

func TestNewPillRegimen_Validation(t *testing.T) {
	okDosage := DosageSpec{Hour: 9, Minute: 0, Medicines: []MedicineSpec{med("m1", 0, 1)}}

	cases := []struct {
		name       string
		externalID string
		window     int
		count      int
		dosages    []DosageSpec
		want       error
	}{
		{"no dosages", "p", 0, 0, nil, ErrInvalidInput},
		{"dosage without medicines", "p", 0, 0, []DosageSpec{{Hour: 9}}, ErrInvalidInput},
		{"inverted window", "p", 0, 0, []DosageSpec{{Hour: 9, Medicines: []MedicineSpec{med("m1", 3, 1)}}}, ErrInvalidInput},
		{"missing medicine name", "p", 0, 0, []DosageSpec{{Hour: 9, Medicines: []MedicineSpec{med(" ", 0, 1)}}}, ErrInvalidInput},
		{"missing dates", "p", 0, 0, []DosageSpec{{Hour: 9, Medicines: []MedicineSpec{{Name: "m1"}}}}, ErrInvalidInput},
		{"hour out of range", "p", 0, 0, []DosageSpec{{Hour: 24, Medicines: []MedicineSpec{med("m1", 0, 1)}}}, ErrInvalidInput},
		{"minute out of range", "p", 0, 0, []DosageSpec{{Hour: 9, Minute: 60, Medicines: []MedicineSpec{med("m1", 0, 1)}}}, ErrInvalidInput},
		{"negative repeat count", "p", 0, -1, []DosageSpec{okDosage}, ErrInvalidInput},
		{"empty external id", "  ", 0, 0, []DosageSpec{okDosage}, ErrInvalidInput},
		{"duplicate dosage time", "p", 0, 0, []DosageSpec{okDosage, okDosage}, ErrDataIntegrity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPillRegimen(tc.externalID, tc.window, tc.count, tc.dosages)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestAssignIdentity_AssignsEveryID(t *testing.T) {
	p, err := NewPillRegimen("p", 0, 0, []DosageSpec{
		{Hour: 9, Medicines: []MedicineSpec{med("m1", 0, 1)}},
		{Hour: 21, Medicines: []MedicineSpec{med("m1", 0, 1)}},
	})
	require.NoError(t, err)

	p.AssignIdentity(seqIDs())

	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "id-2", p.Dosages[0].ID)
	assert.Equal(t, "id-3", p.Dosages[0].JobID)
	assert.Equal(t, "id-4", p.Dosages[1].ID)
	assert.Equal(t, "id-5", p.Dosages[1].JobID)
}

func TestGetDosage(t *testing.T) {
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{dosageAt("a", 9, 0)}}

	d, err := p.GetDosage("a")
	require.NoError(t, err)
	assert.Equal(t, "a", d.ID)

	_, err = p.GetDosage("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextAndPreviousDosage_WrapAroundTheDay(t *testing.T) {
	morning := dosageAt("morning", 10, 5)
	evening := dosageAt("evening", 20, 5)
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{evening, morning}}

	next, err := p.NextDosage(evening)
	require.NoError(t, err)
	assert.Equal(t, "morning", next.ID)

	prev, err := p.PreviousDosage(morning)
	require.NoError(t, err)
	assert.Equal(t, "evening", prev.ID)

	next, err = p.NextDosage(morning)
	require.NoError(t, err)
	assert.Equal(t, "evening", next.ID)
}

func TestNextAndPreviousDosage_OrderByHourThenMinute(t *testing.T) {
	a := dosageAt("a", 8, 30)
	b := dosageAt("b", 8, 45)
	c := dosageAt("c", 13, 0)
	d := dosageAt("d", 22, 10)
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{c, d, b, a}}

	cases := []struct {
		current  *Dosage
		wantNext string
		wantPrev string
	}{
		{a, "b", "d"},
		{b, "c", "a"},
		{c, "d", "b"},
		{d, "a", "c"},
	}
	for _, tc := range cases {
		next, err := p.NextDosage(tc.current)
		require.NoError(t, err)
		assert.Equal(t, tc.wantNext, next.ID, "next of %s", tc.current.ID)

		prev, err := p.PreviousDosage(tc.current)
		require.NoError(t, err)
		assert.Equal(t, tc.wantPrev, prev.ID, "previous of %s", tc.current.ID)
	}
}

func TestNextDosage_SingleDosageIsItsOwnNeighbour(t *testing.T) {
	only := dosageAt("only", 9, 0)
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{only}}

	next, err := p.NextDosage(only)
	require.NoError(t, err)
	assert.Same(t, only, next)

	prev, err := p.PreviousDosage(only)
	require.NoError(t, err)
	assert.Same(t, only, prev)
}

func TestNextDosage_DuplicateTimeIsDataIntegrityError(t *testing.T) {
	a := dosageAt("a", 9, 0)
	b := dosageAt("b", 9, 0)
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{a, b, dosageAt("c", 12, 0)}}

	_, err := p.NextDosage(a)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	_, err = p.PreviousDosage(b)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestNextDosage_ForeignDosageIsNotFound(t *testing.T) {
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{dosageAt("a", 9, 0)}}

	_, err := p.NextDosage(dosageAt("x", 11, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextDosage_ForeignDosageSharingTimeIsNotFound(t *testing.T) {
	p := &PillRegimen{ID: "r", Dosages: []*Dosage{dosageAt("a", 9, 0), dosageAt("b", 21, 0)}}

	_, err := p.NextDosage(dosageAt("other-regimen", 9, 0))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.PreviousDosage(dosageAt("other-regimen", 21, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDosage_ResponseCapturedToday(t *testing.T) {
	d := dosageAt("a", 9, 0)
	now := day0.Add(10 * time.Hour)

	assert.False(t, d.IsTodaysResponseCaptured(now))

	d.MarkResponseCaptured(now)
	assert.True(t, d.IsTodaysResponseCaptured(now.Add(5*time.Hour)))
	assert.False(t, d.IsTodaysResponseCaptured(dateutil.AddDays(now, 1)))
	assert.Equal(t, day0, *d.ResponseLastCapturedDate)
}

func TestPillRegimen_IsActiveOn(t *testing.T) {
	p, err := NewPillRegimen("p", 0, 0, []DosageSpec{{Hour: 9, Medicines: []MedicineSpec{med("m1", 1, 3)}}})
	require.NoError(t, err)

	assert.False(t, p.IsActiveOn(day0))
	assert.True(t, p.IsActiveOn(dateutil.AddDays(day0, 1)))
	assert.True(t, p.IsActiveOn(dateutil.AddDays(day0, 3).Add(23*time.Hour)))
	assert.False(t, p.IsActiveOn(dateutil.AddDays(day0, 4)))
}

func TestPillRegimen_IsActiveOn_LocalClock(t *testing.T) {
	// fechas del regimen en UTC: 22 al 24 inclusive
	p, err := NewPillRegimen("p", 0, 0, []DosageSpec{{Hour: 9, Medicines: []MedicineSpec{med("m1", 0, 2)}}})
	require.NoError(t, err)

	east := time.FixedZone("UTC+9", 9*3600)
	west := time.FixedZone("UTC-9", -9*3600)
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"first day east morning", time.Date(2025, 12, 22, 1, 0, 0, 0, east), true},
		{"first day west morning", time.Date(2025, 12, 22, 9, 0, 0, 0, west), true},
		{"last day east night", time.Date(2025, 12, 24, 23, 0, 0, 0, east), true},
		{"last day west night", time.Date(2025, 12, 24, 23, 0, 0, 0, west), true},
		{"day before east", time.Date(2025, 12, 21, 23, 0, 0, 0, east), false},
		{"day before west", time.Date(2025, 12, 21, 9, 0, 0, 0, west), false},
		{"day after east", time.Date(2025, 12, 25, 1, 0, 0, 0, east), false},
		{"day after west", time.Date(2025, 12, 25, 1, 0, 0, 0, west), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.IsActiveOn(tc.at))
		})
	}
}

func TestDosage_ResponseCapturedToday_LocalClock(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*3600)
	d := dosageAt("a", 9, 0)
	now := time.Date(2025, 12, 22, 2, 0, 0, 0, east) // 21/12 en UTC

	d.MarkResponseCaptured(now)

	assert.Equal(t, day0, *d.ResponseLastCapturedDate)
	assert.True(t, d.IsTodaysResponseCaptured(now.Add(20*time.Hour)))
	assert.False(t, d.IsTodaysResponseCaptured(now.Add(23*time.Hour)))
}

func TestDailyCronExpression(t *testing.T) {
	assert.Equal(t, "5 9 * * *", DailyCronExpression(DosageTime{Hour: 9, Minute: 5}))
	assert.Equal(t, "0 0 * * *", DailyCronExpression(DosageTime{}))
}

package regimens

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pill-reminder/internal/platform/dateutil"
)

// DosageTime es la hora del día (sin fecha) en la que se repite una dosis.
type DosageTime struct {
	Hour   int
	Minute int
}

func (t DosageTime) minutes() int { return t.Hour*60 + t.Minute }

// Before ordena por hora y luego minuto.
func (t DosageTime) Before(o DosageTime) bool { return t.minutes() < o.minutes() }

func (t DosageTime) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t DosageTime) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Medicine es un valor inmutable: la renovación siempre crea instancias nuevas.
type Medicine struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// Dosage es un slot diario de recordatorio que cubre uno o más medicamentos.
type Dosage struct {
	ID    string
	JobID string // id del job recurrente registrado en el scheduler

	Time      DosageTime
	Medicines []Medicine

	// Fecha en que se capturó la respuesta del paciente (stop-today). nil = nunca.
	ResponseLastCapturedDate *time.Time
}

func (d *Dosage) DosageTime() DosageTime { return d.Time }

// StartDate es el inicio más temprano entre los medicamentos de esta dosis.
func (d *Dosage) StartDate() time.Time {
	var out time.Time
	for i, m := range d.Medicines {
		if i == 0 || m.StartDate.Before(out) {
			out = m.StartDate
		}
	}
	return out
}

// EndDate es el fin más tardío entre los medicamentos de esta dosis.
func (d *Dosage) EndDate() time.Time {
	var out time.Time
	for i, m := range d.Medicines {
		if i == 0 || m.EndDate.After(out) {
			out = m.EndDate
		}
	}
	return out
}

func (d *Dosage) MedicineNames() []string {
	out := make([]string, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		out = append(out, m.Name)
	}
	return out
}

// IsTodaysResponseCaptured indica si ya se registró la toma de hoy.
func (d *Dosage) IsTodaysResponseCaptured(now time.Time) bool {
	if d.ResponseLastCapturedDate == nil {
		return false
	}
	return dateutil.SameDay(*d.ResponseLastCapturedDate, now)
}

func (d *Dosage) MarkResponseCaptured(day time.Time) {
	t := dateutil.CivilDate(day)
	d.ResponseLastCapturedDate = &t
}

// PillRegimen es la raíz del agregado. Las fechas de inicio/fin se derivan
// de los medicamentos; nunca se guardan.
type PillRegimen struct {
	ID         string
	ExternalID string

	ReminderRepeatWindowInMinutes int
	ReminderRepeatCount           int

	Dosages []*Dosage
}

// MedicineSpec, DosageSpec: entrada de construcción (sin ids).
type MedicineSpec struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

type DosageSpec struct {
	Hour      int
	Minute    int
	Medicines []MedicineSpec
}

// NewPillRegimen construye el agregado completo, sin identidad.
// La identidad se asigna después con AssignIdentity.
func NewPillRegimen(externalID string, repeatWindowMinutes, repeatCount int, specs []DosageSpec) (*PillRegimen, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id required", ErrInvalidInput)
	}
	if repeatWindowMinutes < 0 || repeatCount < 0 {
		return nil, fmt.Errorf("%w: reminder repeat window/count must be >= 0", ErrInvalidInput)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one dosage required", ErrInvalidInput)
	}

	seen := make(map[DosageTime]struct{}, len(specs))
	dosages := make([]*Dosage, 0, len(specs))
	for _, ds := range specs {
		dt := DosageTime{Hour: ds.Hour, Minute: ds.Minute}
		if !dt.Valid() {
			return nil, fmt.Errorf("%w: invalid dosage time %02d:%02d", ErrInvalidInput, ds.Hour, ds.Minute)
		}
		if len(ds.Medicines) == 0 {
			return nil, fmt.Errorf("%w: dosage %s has no medicines", ErrInvalidInput, dt)
		}
		if _, dup := seen[dt]; dup {
			return nil, fmt.Errorf("%w: two dosages at %s", ErrDataIntegrity, dt)
		}
		seen[dt] = struct{}{}

		meds := make([]Medicine, 0, len(ds.Medicines))
		for _, ms := range ds.Medicines {
			name := strings.TrimSpace(ms.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: medicine name required", ErrInvalidInput)
			}
			start := dateutil.CivilDate(ms.StartDate)
			end := dateutil.CivilDate(ms.EndDate)
			if ms.StartDate.IsZero() || ms.EndDate.IsZero() {
				return nil, fmt.Errorf("%w: medicine %q needs start and end dates", ErrInvalidInput, name)
			}
			if start.After(end) {
				return nil, fmt.Errorf("%w: medicine %q starts after it ends", ErrInvalidInput, name)
			}
			meds = append(meds, Medicine{Name: name, StartDate: start, EndDate: end})
		}
		dosages = append(dosages, &Dosage{Time: dt, Medicines: meds})
	}

	return &PillRegimen{
		ExternalID:                    externalID,
		ReminderRepeatWindowInMinutes: repeatWindowMinutes,
		ReminderRepeatCount:           repeatCount,
		Dosages:                       dosages,
	}, nil
}

// AssignIdentity asigna ids al regimen, a cada dosis y a su job.
// Es el único paso donde se asigna identidad.
func (p *PillRegimen) AssignIdentity(newID func() string) {
	p.ID = newID()
	for _, d := range p.Dosages {
		d.ID = newID()
		d.JobID = newID()
	}
}

// StartDate: el inicio más temprano de todos los medicamentos de todas las dosis.
func (p *PillRegimen) StartDate() time.Time {
	var out time.Time
	for i, d := range p.Dosages {
		if s := d.StartDate(); i == 0 || s.Before(out) {
			out = s
		}
	}
	return out
}

// EndDate: el fin más tardío de todos los medicamentos de todas las dosis.
func (p *PillRegimen) EndDate() time.Time {
	var out time.Time
	for i, d := range p.Dosages {
		if e := d.EndDate(); i == 0 || e.After(out) {
			out = e
		}
	}
	return out
}

// IsActiveOn indica si day cae dentro de la ventana derivada del regimen.
func (p *PillRegimen) IsActiveOn(day time.Time) bool {
	if len(p.Dosages) == 0 {
		return false
	}
	return dateutil.Within(day, p.StartDate(), p.EndDate())
}

func (p *PillRegimen) GetDosage(dosageID string) (*Dosage, error) {
	for _, d := range p.Dosages {
		if d.ID == dosageID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: dosage %q", ErrNotFound, dosageID)
}

// SortedDosages devuelve las dosis ordenadas por hora del día.
func (p *PillRegimen) SortedDosages() []*Dosage {
	out := make([]*Dosage, len(p.Dosages))
	copy(out, p.Dosages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// NextDosage: la dosis con la menor hora estrictamente mayor que current,
// o la primera del día si current es la última.
func (p *PillRegimen) NextDosage(current *Dosage) (*Dosage, error) {
	return p.neighbour(current, 1)
}

// PreviousDosage es el espejo de NextDosage.
func (p *PillRegimen) PreviousDosage(current *Dosage) (*Dosage, error) {
	return p.neighbour(current, -1)
}

func (p *PillRegimen) neighbour(current *Dosage, step int) (*Dosage, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: current dosage required", ErrNotFound)
	}
	sorted, err := p.orderedDosages()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, d := range sorted {
		if d.ID == current.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: dosage %q not in regimen", ErrNotFound, current.ID)
	}
	n := len(sorted)
	return sorted[((idx+step)%n+n)%n], nil
}

// orderedDosages falla si dos dosis comparten la misma hora del día.
func (p *PillRegimen) orderedDosages() ([]*Dosage, error) {
	sorted := p.SortedDosages()
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time == sorted[i-1].Time {
			return nil, fmt.Errorf("%w: regimen %q has two dosages at %s", ErrDataIntegrity, p.ID, sorted[i].Time)
		}
	}
	return sorted, nil
}

package regimens

import "time"

// Requests que recibe el service (creación y renovación usan el mismo shape).
type PillRegimenRequest struct {
	ExternalID                    string
	ReminderRepeatWindowInMinutes int
	ReminderRepeatCount           int
	Dosages                       []DosageRequest
}

type DosageRequest struct {
	Hour      int
	Minute    int
	Medicines []MedicineRequest
}

type MedicineRequest struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func (r PillRegimenRequest) dosageSpecs() []DosageSpec {
	out := make([]DosageSpec, 0, len(r.Dosages))
	for _, d := range r.Dosages {
		meds := make([]MedicineSpec, 0, len(d.Medicines))
		for _, m := range d.Medicines {
			meds = append(meds, MedicineSpec{Name: m.Name, StartDate: m.StartDate, EndDate: m.EndDate})
		}
		out = append(out, DosageSpec{Hour: d.Hour, Minute: d.Minute, Medicines: meds})
	}
	return out
}

type PillRegimenResponse struct {
	PillRegimenID                 string
	ExternalID                    string
	ReminderRepeatWindowInMinutes int
	ReminderRepeatCount           int
	StartDate                     time.Time
	EndDate                       time.Time
	Dosages                       []DosageResponse
}

type DosageResponse struct {
	DosageID                 string
	DosageHour               int
	DosageMinute             int
	StartDate                time.Time
	EndDate                  time.Time
	ResponseLastCapturedDate *time.Time
	Medicines                []MedicineResponse
}

type MedicineResponse struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func toPillRegimenResponse(p *PillRegimen) PillRegimenResponse {
	sorted := p.SortedDosages()
	dosages := make([]DosageResponse, 0, len(sorted))
	for _, d := range sorted {
		dosages = append(dosages, toDosageResponse(d))
	}
	return PillRegimenResponse{
		PillRegimenID:                 p.ID,
		ExternalID:                    p.ExternalID,
		ReminderRepeatWindowInMinutes: p.ReminderRepeatWindowInMinutes,
		ReminderRepeatCount:           p.ReminderRepeatCount,
		StartDate:                     p.StartDate(),
		EndDate:                       p.EndDate(),
		Dosages:                       dosages,
	}
}

func toDosageResponse(d *Dosage) DosageResponse {
	meds := make([]MedicineResponse, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		meds = append(meds, MedicineResponse(m))
	}
	return DosageResponse{
		DosageID:                 d.ID,
		DosageHour:               d.Time.Hour,
		DosageMinute:             d.Time.Minute,
		StartDate:                d.StartDate(),
		EndDate:                  d.EndDate(),
		ResponseLastCapturedDate: d.ResponseLastCapturedDate,
		Medicines:                meds,
	}
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/platform/dateutil"
)

// RegimensRepo guarda copias del agregado: lo que devuelve Get se puede
// modificar sin afectar el store.
type RegimensRepo struct {
	mu         sync.RWMutex
	byID       map[string]*regimens.PillRegimen
	byExternal map[string]string // external id -> regimen id

	now func() time.Time
}

func NewRegimensRepo(now func() time.Time) *RegimensRepo {
	if now == nil {
		now = dateutil.SystemClock
	}
	return &RegimensRepo{
		byID:       make(map[string]*regimens.PillRegimen),
		byExternal: make(map[string]string),
		now:        now,
	}
}

func (r *RegimensRepo) Add(ctx context.Context, p *regimens.PillRegimen) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errors.New("regimen id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("regimen %q already exists", p.ID)
	}
	if _, exists := r.byExternal[p.ExternalID]; exists {
		return fmt.Errorf("%w: %s", regimens.ErrDuplicateExternalID, p.ExternalID)
	}
	r.byID[p.ID] = clone(p)
	r.byExternal[p.ExternalID] = p.ID
	return nil
}

func (r *RegimensRepo) Remove(ctx context.Context, p *regimens.PillRegimen) error {
	if p == nil {
		return regimens.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[p.ID]
	if !ok {
		return regimens.ErrNotFound
	}
	delete(r.byID, p.ID)
	if r.byExternal[stored.ExternalID] == p.ID {
		delete(r.byExternal, stored.ExternalID)
	}
	return nil
}

func (r *RegimensRepo) Get(ctx context.Context, id string) (*regimens.PillRegimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, regimens.ErrNotFound
	}
	return clone(p), nil
}

func (r *RegimensRepo) FindByExternalID(ctx context.Context, externalID string) (*regimens.PillRegimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[strings.TrimSpace(externalID)]
	if !ok {
		return nil, regimens.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

// List ordena por external id para que el resultado sea estable.
func (r *RegimensRepo) List(ctx context.Context) ([]*regimens.PillRegimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*regimens.PillRegimen, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *RegimensRepo) MedicinesFor(ctx context.Context, regimenID, dosageID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, err := r.dosage(regimenID, dosageID)
	if err != nil {
		return nil, err
	}
	return d.MedicineNames(), nil
}

func (r *RegimensRepo) StopTodaysReminders(ctx context.Context, regimenID, dosageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.dosage(regimenID, dosageID)
	if err != nil {
		return err
	}
	d.MarkResponseCaptured(r.now())
	return nil
}

// dosage asume el lock tomado.
func (r *RegimensRepo) dosage(regimenID, dosageID string) (*regimens.Dosage, error) {
	p, ok := r.byID[regimenID]
	if !ok {
		return nil, regimens.ErrNotFound
	}
	return p.GetDosage(dosageID)
}

func clone(p *regimens.PillRegimen) *regimens.PillRegimen {
	out := *p
	out.Dosages = make([]*regimens.Dosage, 0, len(p.Dosages))
	for _, d := range p.Dosages {
		dc := *d
		dc.Medicines = append([]regimens.Medicine(nil), d.Medicines...)
		if d.ResponseLastCapturedDate != nil {
			t := *d.ResponseLastCapturedDate
			dc.ResponseLastCapturedDate = &t
		}
		out.Dosages = append(out.Dosages, &dc)
	}
	return &out
}

package regimens

import "context"

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks Repository

// Repository persiste el agregado completo (regimen + dosis + medicamentos).
// Los ids desconocidos devuelven ErrNotFound.
type Repository interface {
	Add(ctx context.Context, p *PillRegimen) error
	Remove(ctx context.Context, p *PillRegimen) error
	Get(ctx context.Context, id string) (*PillRegimen, error)
	FindByExternalID(ctx context.Context, externalID string) (*PillRegimen, error)

	// List devuelve todos los regimenes guardados (para re-agendar al arrancar).
	List(ctx context.Context) ([]*PillRegimen, error)

	// MedicinesFor devuelve los nombres de los medicamentos de la dosis, en orden.
	MedicinesFor(ctx context.Context, regimenID, dosageID string) ([]string, error)

	// StopTodaysReminders marca la dosis como respondida hoy; no toca el job recurrente.
	StopTodaysReminders(ctx context.Context, regimenID, dosageID string) error
}

package regimens

import "errors"

var (
	// ErrInvalidInput: entrada de construcción mal formada. Nada se persiste ni se agenda.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrDataIntegrity: dos dosis del mismo regimen con la misma hora del día.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrDuplicateExternalID lo devuelve el store al agregar un segundo regimen
	// activo con el mismo external id.
	ErrDuplicateExternalID = errors.New("external id already has an active regimen")
)

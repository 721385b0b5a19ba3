package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Errores del ciclo de vida de la factura.
	ErrInvariant         = errors.New("invariante de precios violada")
	ErrPrecondition      = errors.New("faltan campos requeridos")
	ErrIllegalTransition = errors.New("transición de estado inválida")
	ErrBlockedTransition = errors.New("transición bloqueada")
)

// DuplicateIDError se devuelve al agregar un registro cuyo id ya existe.
type DuplicateIDError struct {
	Kind string // "line item", "payment", ...
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s with id %q already exists", e.Kind, e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicate }

// NotFoundError se devuelve cuando un id no corresponde a ningún registro.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error conserva el texto "<Kind> not found" que se muestra al usuario final.
func (e *NotFoundError) Error() string {
	if e.Kind == "" {
		return "Not found"
	}
	return strings.ToUpper(e.Kind[:1]) + e.Kind[1:] + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvariantError indica qué relación de precios no se cumple en un ítem nuevo.
type InvariantError struct {
	Relation string
	Expected string
	Actual   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("price mismatch: %s (expected %s, got %s)", e.Relation, e.Expected, e.Actual)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// PreconditionError lista los campos obligatorios ausentes para una acción.
type PreconditionError struct {
	Action  string
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", e.Action, strings.Join(e.Missing, ", "))
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// IllegalTransitionError: el estado destino no está permitido desde el actual.
type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("Invalid transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// BlockedTransitionError: una regla de negocio impide la acción sin importar la tabla.
type BlockedTransitionError struct {
	Action string
	Reason string
}

func (e *BlockedTransitionError) Error() string {
	return fmt.Sprintf("%s is blocked: %s", e.Action, e.Reason)
}

func (e *BlockedTransitionError) Unwrap() error { return ErrBlockedTransition }

package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

//go:embed default_transitions.yaml
var defaultTransitions []byte

// TransitionTable adyacencia estado actual -> estados destino permitidos.
type TransitionTable map[entity.Status][]entity.Status

// Permits indica si la tabla permite pasar de from a to.
func (t TransitionTable) Permits(from, to entity.Status) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseTable decodifica una tabla en YAML y valida que todos los estados existan.
func ParseTable(data []byte) (TransitionTable, error) {
	var t TransitionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transition table: %w", err)
	}
	if len(t) == 0 {
		return nil, errors.New("transition table: vacía")
	}
	for from, targets := range t {
		if !from.Valid() {
			return nil, fmt.Errorf("transition table: estado desconocido %q", from)
		}
		for _, to := range targets {
			if !to.Valid() {
				return nil, fmt.Errorf("transition table: estado desconocido %q en %s", to, from)
			}
		}
	}
	return t, nil
}

// LoadTable lee la tabla desde un archivo YAML.
func LoadTable(path string) (TransitionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transition table: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable tabla embebida en el binario.
func DefaultTable() TransitionTable {
	t, err := ParseTable(defaultTransitions)
	if err != nil {
		panic(err)
	}
	return t
}

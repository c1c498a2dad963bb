// Package mapper converts trails into H3 cell coverage.
package mapper

import (
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

type Interface interface {
	CellsForTrail(t model.Trail, res int) ([]string, error)
}

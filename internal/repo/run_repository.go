package repo

import (
	"errors"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

// ErrRunNotFound is returned when no matching pipeline run exists.
var ErrRunNotFound = errors.New("run not found")

// RunRepository stores completed pipeline runs. Runs are immutable once
// saved; each Save records a whole run (batch, predictions, accuracy) and
// Latest returns the most recent one.
type RunRepository interface {
	Save(run models.Run) (models.Run, error)
	GetByID(id int) (models.Run, error)
	Latest() (models.Run, error)
}

package repo

import (
	"sync"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

// InMemoryRunRepository is an in-memory implementation of RunRepository.
type InMemoryRunRepository struct {
	mu     sync.RWMutex
	runs   []models.Run
	nextID int
}

// NewInMemoryRunRepository creates a new instance of InMemoryRunRepository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs:   []models.Run{},
		nextID: 1,
	}
}

// Save stores a completed run and assigns its id.
func (r *InMemoryRunRepository) Save(run models.Run) (models.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run.ID = r.nextID
	r.nextID++
	r.runs = append(r.runs, run)
	return run, nil
}

// GetByID retrieves a run by its ID.
func (r *InMemoryRunRepository) GetByID(id int) (models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return models.Run{}, ErrRunNotFound
}

// Latest returns the most recently saved run.
func (r *InMemoryRunRepository) Latest() (models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.runs) == 0 {
		return models.Run{}, ErrRunNotFound
	}
	return r.runs[len(r.runs)-1], nil
}

// Clear removes all stored runs.
func (r *InMemoryRunRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = []models.Run{}
	r.nextID = 1
}

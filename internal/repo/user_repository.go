package repo

import (
	"errors"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

var (
	// ErrUserNotFound is returned when a user is not found in the repository.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicatedValueUnique is returned when a unique constraint is violated.
	ErrDuplicatedValueUnique = errors.New("unique constraint violation")
)

type UserRepository interface {
	GetByUsername(username string) (models.User, error)
	CreateUser(u models.User) (models.User, error)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
	"github.com/rogerio-castellano/reorder-signal/internal/pipeline"
	repo "github.com/rogerio-castellano/reorder-signal/internal/repo"
)

// RunCache is the latest-run cache and cross-instance run lock backing the
// run handlers. Satisfied by redissvc.RedisService; left nil when no Redis
// is configured.
type RunCache interface {
	LatestRun() (models.Run, bool, error)
	CacheLatestRun(run models.Run) error
	AcquireRunLock(ttl time.Duration) (bool, error)
	ReleaseRunLock() error
}

var (
	runRepo  repo.RunRepository
	userRepo repo.UserRepository
	runner   *pipeline.Runner
	runCache RunCache
)

func SetRunRepo(r repo.RunRepository) {
	runRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetRunner(rn *pipeline.Runner) {
	runner = rn
}

func SetRunCache(c RunCache) {
	runCache = c
}

type contextKey string

// UserIDKey carries the authenticated user's id, set by the auth middleware.
var UserIDKey = contextKey("user_id")

// UserID returns the authenticated user's id from the request context, or 0
// when the request was not authenticated.
func UserID(r *http.Request) int {
	if v, ok := r.Context().Value(UserIDKey).(int); ok {
		return v
	}
	return 0
}

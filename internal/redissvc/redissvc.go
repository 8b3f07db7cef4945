package redissvc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

const (
	latestRunKey = "reorder:latest_run"
	runLockKey   = "reorder:run_lock"
)

// RedisService caches the latest pipeline run and backs the cross-instance
// run lock. The pipeline itself never depends on it; a nil service is valid
// and all helpers degrade to no-ops.
type RedisService struct {
	rdb *redis.Client
	ctx context.Context
}

func NewRedisService(rdb *redis.Client, ctx context.Context) *RedisService {
	return &RedisService{
		rdb: rdb,
		ctx: ctx,
	}
}

// CacheLatestRun stores the run summary as JSON, replacing the previous one.
func (s *RedisService) CacheLatestRun(run models.Run) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.rdb.Set(s.ctx, latestRunKey, data, 0).Err()
}

// LatestRun returns the cached run and whether one was present.
func (s *RedisService) LatestRun() (models.Run, bool, error) {
	if s == nil {
		return models.Run{}, false, nil
	}
	data, err := s.rdb.Get(s.ctx, latestRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Run{}, false, nil
	}
	if err != nil {
		return models.Run{}, false, err
	}

	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return models.Run{}, false, err
	}
	return run, true, nil
}

// AcquireRunLock takes the shared run lock for at most ttl. It reports
// false when another instance already holds it.
func (s *RedisService) AcquireRunLock(ttl time.Duration) (bool, error) {
	if s == nil {
		return true, nil
	}
	return s.rdb.SetNX(s.ctx, runLockKey, "1", ttl).Result()
}

// ReleaseRunLock drops the shared run lock.
func (s *RedisService) ReleaseRunLock() error {
	if s == nil {
		return nil
	}
	return s.rdb.Del(s.ctx, runLockKey).Err()
}

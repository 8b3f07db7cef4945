package handlers_test_suite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/rogerio-castellano/reorder-signal/internal/classifier"
	api "github.com/rogerio-castellano/reorder-signal/internal/http"
	handler "github.com/rogerio-castellano/reorder-signal/internal/http/handlers"
	rl "github.com/rogerio-castellano/reorder-signal/internal/http/rate_limiter"
	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

// fakeRunCache records the last run handed to the cache, standing in for
// Redis.
type fakeRunCache struct {
	run    models.Run
	cached bool
}

func (c *fakeRunCache) LatestRun() (models.Run, bool, error) { return c.run, c.cached, nil }

func (c *fakeRunCache) CacheLatestRun(run models.Run) error {
	c.run = run
	c.cached = true
	return nil
}

func (c *fakeRunCache) AcquireRunLock(time.Duration) (bool, error) { return true, nil }

func (c *fakeRunCache) ReleaseRunLock() error { return nil }

type failingTrainer struct{}

func (failingTrainer) Train(context.Context, [][]float64, []float64, classifier.Options) (classifier.Model, error) {
	return nil, errors.New("weights diverged")
}

func TestTriggerRunRequiresAuth(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", w.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	w := triggerRun(r)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}

	var resp handler.RunResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if resp.Status != string(models.StatusComplete) {
		t.Errorf("expected status %q, got %q", models.StatusComplete, resp.Status)
	}
	if resp.RecordCount != testBatchSize {
		t.Errorf("expected %d records, got %d", testBatchSize, resp.RecordCount)
	}
	if resp.AccuracyPct < 0 || resp.AccuracyPct > 100 {
		t.Errorf("accuracy percentage %v out of [0,100]", resp.AccuracyPct)
	}
	if resp.Id == 0 {
		t.Error("expected the saved run to have an id")
	}
}

func TestGetLatestRun(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	w := triggerRun(r)
	if w.Code != http.StatusCreated {
		t.Fatalf("trigger failed with %d", w.Code)
	}
	var created handler.RunResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var latest handler.RunResponse
	if err := json.NewDecoder(w.Body).Decode(&latest); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if latest.Id != created.Id {
		t.Errorf("expected latest run %d, got %d", created.Id, latest.Id)
	}
}

func TestGetLatestRunNotFound(t *testing.T) {
	t.Cleanup(clearAllRuns)
	clearAllRuns()
	r := api.NewRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 Not Found, got %d", w.Code)
	}
}

func TestGetRunByID(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	w := triggerRun(r)
	var created handler.RunResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/runs/%d", created.Id), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestGetLatestRunProducts(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	if w := triggerRun(r); w.Code != http.StatusCreated {
		t.Fatalf("trigger failed with %d", w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/latest/products", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var result handler.RunProductsResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if len(result.Data) != testBatchSize {
		t.Fatalf("expected %d rows, got %d", testBatchSize, len(result.Data))
	}
	if result.Meta.TotalCount != testBatchSize {
		t.Errorf("expected total count %d, got %d", testBatchSize, result.Meta.TotalCount)
	}
	for _, row := range result.Data {
		if row.Decision != string(models.DecisionReorder) && row.Decision != string(models.DecisionHealthy) {
			t.Errorf("product %d: unexpected decision %q", row.Id, row.Decision)
		}
		if row.Name == "" {
			t.Errorf("product %d: missing name", row.Id)
		}
	}
}

func TestRunsDoNotLeakAcrossTriggers(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	var first, second handler.RunResponse
	w := triggerRun(r)
	json.NewDecoder(w.Body).Decode(&first)
	w = triggerRun(r)
	json.NewDecoder(w.Body).Decode(&second)

	if first.Id == second.Id {
		t.Fatalf("both runs share id %d", first.Id)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/latest/products", nil))
	var result handler.RunProductsResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if result.RunId != second.Id {
		t.Errorf("products view should reflect run %d, got %d", second.Id, result.RunId)
	}
	if len(result.Data) != second.RecordCount {
		t.Errorf("expected %d rows from the latest batch, got %d", second.RecordCount, len(result.Data))
	}
}

func TestTriggerRunFailureUpdatesLatest(t *testing.T) {
	t.Cleanup(func() {
		handler.SetRunCache(nil)
		handler.SetRunner(newTestRunner(classifier.NewMLPTrainer()))
		clearAllRuns()
	})
	r := api.NewRouter()

	cache := &fakeRunCache{}
	handler.SetRunCache(cache)

	if w := triggerRun(r); w.Code != http.StatusCreated {
		t.Fatalf("trigger failed with %d", w.Code)
	}
	if cache.run.Status != models.StatusComplete {
		t.Fatalf("expected cached run to be Complete, got %q", cache.run.Status)
	}

	handler.SetRunner(newTestRunner(failingTrainer{}))
	if w := triggerRun(r); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from the failing run, got %d", w.Code)
	}

	// The failed run must displace the earlier success in the cache, so
	// the latest-run view never reports a stale Complete.
	if cache.run.Status != models.StatusFailed {
		t.Errorf("expected cached run to be Failed, got %q", cache.run.Status)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var latest handler.RunResponse
	if err := json.NewDecoder(w.Body).Decode(&latest); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if latest.Status != string(models.StatusFailed) {
		t.Errorf("expected latest run status Failed, got %q", latest.Status)
	}
	if latest.Error == "" {
		t.Error("expected the failed run to carry its error message")
	}
}

func TestTriggerRunRejectsInvalidToken(t *testing.T) {
	t.Cleanup(clearAllRuns)
	r := api.NewRouter()

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", w.Code)
	}
}

func TestTriggerRunRateLimited(t *testing.T) {
	t.Cleanup(func() {
		rl.SetLimits(rate.Limit(1), 3)
		clearAllRuns()
	})
	rl.CleanupAllVisitors()
	rl.SetLimits(rate.Limit(1), 1)
	r := api.NewRouter()

	if w := triggerRun(r); w.Code != http.StatusCreated {
		t.Fatalf("first trigger failed with %d", w.Code)
	}
	if w := triggerRun(r); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 Too Many Requests, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r := api.NewRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
}

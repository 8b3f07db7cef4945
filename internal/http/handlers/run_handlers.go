package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
	"github.com/rogerio-castellano/reorder-signal/internal/pipeline"
	repo "github.com/rogerio-castellano/reorder-signal/internal/repo"
)

// runLockTTL bounds how long the shared Redis lock can outlive a crashed
// instance.
const runLockTTL = 5 * time.Minute

// TriggerRunHandler godoc
// @Summary Execute one reorder-signal pipeline run
// @Description Generates a synthetic batch, trains the classifier and stores the resulting decisions
// @Tags runs
// @Produce json
// @Security BearerAuth
// @Success 201 {object} RunResponse
// @Failure 409 {string} string "Run already in progress"
// @Failure 422 {string} string "Empty batch"
// @Failure 500 {object} RunResponse
// @Router /runs [post]
func TriggerRunHandler(w http.ResponseWriter, r *http.Request) {
	if runCache != nil {
		ok, err := runCache.AcquireRunLock(runLockTTL)
		if err != nil {
			log.Printf("could not acquire run lock: %v", err)
			http.Error(w, "run coordination unavailable", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.Error(w, "a pipeline run is already in progress", http.StatusConflict)
			return
		}
		defer func() {
			if err := runCache.ReleaseRunLock(); err != nil {
				log.Printf("could not release run lock: %v", err)
			}
		}()
	}

	log.Printf("pipeline run triggered by user %d", UserID(r))

	run, err := runner.Execute(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		http.Error(w, "a pipeline run is already in progress", http.StatusConflict)
		return
	case errors.Is(err, pipeline.ErrEmptyBatch):
		http.Error(w, "batch size yields no records, nothing to train on", http.StatusUnprocessableEntity)
		return
	case err != nil:
		// Failed runs are stored and cached too so their status stays
		// visible as the latest run instead of a stale success.
		saved, saveErr := runRepo.Save(run)
		if saveErr != nil {
			log.Printf("could not save failed run: %v", saveErr)
			saved = run
		}
		cacheLatestRun(saved)
		writeJSON(w, http.StatusInternalServerError, toRunResponse(saved))
		return
	}

	saved, err := runRepo.Save(run)
	if err != nil {
		http.Error(w, "could not save run", http.StatusInternalServerError)
		return
	}

	cacheLatestRun(saved)
	writeJSON(w, http.StatusCreated, toRunResponse(saved))
}

func cacheLatestRun(run models.Run) {
	if runCache == nil {
		return
	}
	if err := runCache.CacheLatestRun(run); err != nil {
		log.Printf("could not cache latest run: %v", err)
	}
}

// GetLatestRunHandler godoc
// @Summary Latest pipeline run summary
// @Tags runs
// @Produce json
// @Success 200 {object} RunResponse
// @Failure 404 {string} string "No runs yet"
// @Failure 500 {string} string "Internal error"
// @Router /runs/latest [get]
func GetLatestRunHandler(w http.ResponseWriter, r *http.Request) {
	if runCache != nil {
		if run, ok, err := runCache.LatestRun(); err == nil && ok {
			writeJSON(w, http.StatusOK, toRunResponse(run))
			return
		} else if err != nil {
			log.Printf("cache lookup failed: %v", err)
		}
	}

	run, err := runRepo.Latest()
	if err != nil {
		if errors.Is(err, repo.ErrRunNotFound) {
			http.Error(w, "no runs yet", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch latest run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// GetRunByIDHandler godoc
// @Summary Pipeline run summary by ID
// @Tags runs
// @Produce json
// @Param id path int true "Run ID"
// @Success 200 {object} RunResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /runs/{id} [get]
func GetRunByIDHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := runRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrRunNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// GetLatestRunProductsHandler godoc
// @Summary Product table for the latest run
// @Description Joins the latest run's product records with their reorder decisions
// @Tags runs
// @Produce json
// @Success 200 {object} RunProductsResult
// @Failure 404 {string} string "No runs yet"
// @Failure 500 {string} string "Internal error"
// @Router /runs/latest/products [get]
func GetLatestRunProductsHandler(w http.ResponseWriter, r *http.Request) {
	run, err := runRepo.Latest()
	if err != nil {
		if errors.Is(err, repo.ErrRunNotFound) {
			http.Error(w, "no runs yet", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch latest run", http.StatusInternalServerError)
		return
	}

	result := RunProductsResult{
		RunId: run.ID,
		Data:  make([]ProductDecisionResponse, len(run.Batch.Records)),
		Meta:  Meta{TotalCount: len(run.Batch.Records)},
	}
	for i, rec := range run.Batch.Records {
		decision := run.Predictions[rec.ID]
		result.Data[i] = ProductDecisionResponse{
			Id:                 rec.ID,
			Name:               rec.Name,
			Inventory:          rec.Inventory,
			AvgSales:           rec.AvgSales,
			LeadTime:           rec.LeadTime,
			Decision:           string(decision),
			GroundTruthReorder: rec.GroundTruthReorder,
			Correct:            (decision == models.DecisionReorder) == rec.GroundTruthReorder,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// HealthHandler godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toRunResponse(run models.Run) RunResponse {
	reorders := 0
	for _, d := range run.Predictions {
		if d == models.DecisionReorder {
			reorders++
		}
	}
	return RunResponse{
		Id:           run.ID,
		Status:       string(run.Status),
		RecordCount:  run.Batch.Size(),
		ReorderCount: reorders,
		AccuracyPct:  run.Accuracy * 100,
		Error:        run.Error,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
}

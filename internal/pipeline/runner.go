package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rogerio-castellano/reorder-signal/internal/classifier"
	"github.com/rogerio-castellano/reorder-signal/internal/config"
	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

var (
	// ErrRunInProgress is returned when a pipeline run is triggered while
	// another one is still executing. Runs never overlap.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")

	// ErrEmptyBatch is returned when the generated batch has no records;
	// the classifier is never invoked in that case.
	ErrEmptyBatch = errors.New("cannot train on an empty batch")
)

// Generator produces the synthetic batch a run trains on.
type Generator interface {
	Generate(count int) models.Batch
}

// Runner executes the reorder-signal pipeline: generate → frame →
// normalize → train → evaluate → predict → decide. It allows at most one
// active run at a time and releases classifier resources on every exit
// path.
type Runner struct {
	cfg     config.PipelineConfig
	gen     Generator
	trainer classifier.Trainer

	// OnStatus, when set, observes every status transition of the active
	// run. It must not block.
	OnStatus func(models.RunStatus)

	mu sync.Mutex
}

func NewRunner(cfg config.PipelineConfig, gen Generator, trainer classifier.Trainer) *Runner {
	return &Runner{cfg: cfg, gen: gen, trainer: trainer}
}

// Execute performs one full pipeline run. The returned Run carries the
// terminal status and, on success, the decision per product id and the
// evaluation accuracy. Failures inside the classifier mark the run Failed
// and are returned as errors; an empty batch is a no-op signalled with
// ErrEmptyBatch and the status left as it was when the batch arrived.
func (r *Runner) Execute(ctx context.Context) (models.Run, error) {
	if !r.mu.TryLock() {
		return models.Run{Status: models.StatusIdle}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	run := models.Run{
		Status:      models.StatusIdle,
		Predictions: map[int]models.Decision{},
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	r.setStatus(&run, models.StatusFetchingData)
	if r.cfg.FetchDelay > 0 {
		// Generation stands in for a remote fetch, so it takes a beat.
		select {
		case <-time.After(r.cfg.FetchDelay):
		case <-ctx.Done():
			return r.fail(run, ctx.Err())
		}
	}
	run.Batch = r.gen.Generate(r.cfg.BatchSize)
	r.setStatus(&run, models.StatusDataLoaded)

	if run.Batch.Size() == 0 {
		return run, ErrEmptyBatch
	}

	r.setStatus(&run, models.StatusPreparingTensors)
	features, labels := Frame(run.Batch)
	scaler := &MinMaxScaler{}
	normalized := scaler.FitTransform(features)

	r.setStatus(&run, models.StatusTrainingModel)
	model, err := r.trainer.Train(ctx, normalized, labels, classifier.Options{
		Epochs:       r.cfg.Epochs,
		LearningRate: r.cfg.LearningRate,
		Observer: func(epoch int, loss float64) {
			if epoch%10 == 0 || epoch == r.cfg.Epochs {
				log.Printf("epoch %d/%d, loss=%.4f", epoch, r.cfg.Epochs, loss)
			}
		},
	})
	if err != nil {
		return r.fail(run, fmt.Errorf("training failed: %w", err))
	}
	// The model holds the run's only retained buffers; release them no
	// matter how the evaluate/predict sequence ends.
	defer model.Close()

	accuracy, err := model.Evaluate(normalized, labels)
	if err != nil {
		return r.fail(run, fmt.Errorf("evaluation failed: %w", err))
	}
	run.Accuracy = accuracy

	r.setStatus(&run, models.StatusRunningPredictions)
	probs, err := model.Predict(normalized)
	if err != nil {
		return r.fail(run, fmt.Errorf("prediction failed: %w", err))
	}

	decisions := Decide(probs, r.cfg.DecisionThreshold)
	for k, rec := range run.Batch.Records {
		run.Predictions[rec.ID] = decisions[k]
	}

	r.setStatus(&run, models.StatusComplete)
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	return run, nil
}

func (r *Runner) setStatus(run *models.Run, status models.RunStatus) {
	run.Status = status
	if r.OnStatus != nil {
		r.OnStatus(status)
	}
}

func (r *Runner) fail(run models.Run, err error) (models.Run, error) {
	r.setStatus(&run, models.StatusFailed)
	run.Error = err.Error()
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	return run, err
}

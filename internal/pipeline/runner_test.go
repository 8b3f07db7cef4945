package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rogerio-castellano/reorder-signal/internal/classifier"
	"github.com/rogerio-castellano/reorder-signal/internal/config"
	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

type stubGenerator struct {
	batch models.Batch
}

func (g *stubGenerator) Generate(count int) models.Batch {
	return g.batch
}

type stubModel struct {
	probs      []float64
	accuracy   float64
	evalErr    error
	predictErr error
	closed     bool
}

func (m *stubModel) Predict(features [][]float64) ([]float64, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	return m.probs, nil
}

func (m *stubModel) Evaluate(features [][]float64, labels []float64) (float64, error) {
	return m.accuracy, m.evalErr
}

func (m *stubModel) Close() error {
	m.closed = true
	return nil
}

type stubTrainer struct {
	model   *stubModel
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (t *stubTrainer) Train(ctx context.Context, features [][]float64, labels []float64, opts classifier.Options) (classifier.Model, error) {
	t.calls++
	if t.started != nil {
		close(t.started)
	}
	if t.release != nil {
		<-t.release
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.model, nil
}

func testConfig(batchSize int) config.PipelineConfig {
	return config.PipelineConfig{
		BatchSize:         batchSize,
		Epochs:            5,
		LearningRate:      0.05,
		DecisionThreshold: 0.5,
	}
}

func threeRecordBatch(baseID int) models.Batch {
	return models.Batch{Records: []models.ProductRecord{
		{ID: baseID, Name: "Widget", Inventory: 3, AvgSales: 30, LeadTime: 10, GroundTruthReorder: true},
		{ID: baseID + 1, Name: "Gadget", Inventory: 200, AvgSales: 10, LeadTime: 2, GroundTruthReorder: false},
		{ID: baseID + 2, Name: "Gizmo", Inventory: 40, AvgSales: 20, LeadTime: 7, GroundTruthReorder: true},
	}}
}

func TestExecuteEndToEnd(t *testing.T) {
	model := &stubModel{probs: []float64{0.9, 0.1, 0.5}, accuracy: 1.0}
	trainer := &stubTrainer{model: model}
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)}, trainer)

	run, err := runner.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != models.StatusComplete {
		t.Errorf("expected status %q, got %q", models.StatusComplete, run.Status)
	}
	want := map[int]models.Decision{
		1: models.DecisionReorder,
		2: models.DecisionHealthy,
		3: models.DecisionHealthy, // p == 0.5 stays Healthy
	}
	for id, decision := range want {
		if run.Predictions[id] != decision {
			t.Errorf("product %d: expected %q, got %q", id, decision, run.Predictions[id])
		}
	}
	if len(run.Predictions) != 3 {
		t.Errorf("expected 3 predictions, got %d", len(run.Predictions))
	}
	if run.Accuracy != 1.0 {
		t.Errorf("expected accuracy 1.0, got %v", run.Accuracy)
	}
	if !model.closed {
		t.Error("model resources were not released after a successful run")
	}
}

func TestExecuteEmptyBatchIsNoOp(t *testing.T) {
	trainer := &stubTrainer{model: &stubModel{}}
	runner := NewRunner(testConfig(0), &stubGenerator{}, trainer)

	run, err := runner.Execute(context.Background())
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if trainer.calls != 0 {
		t.Errorf("classifier must not be invoked for an empty batch, got %d calls", trainer.calls)
	}
	if run.Status != models.StatusDataLoaded {
		t.Errorf("expected status %q, got %q", models.StatusDataLoaded, run.Status)
	}
}

func TestExecuteTrainingFailure(t *testing.T) {
	trainer := &stubTrainer{err: errors.New("exploding gradients")}
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)}, trainer)

	run, err := runner.Execute(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if run.Status != models.StatusFailed {
		t.Errorf("expected status %q, got %q", models.StatusFailed, run.Status)
	}
	if run.Error == "" {
		t.Error("expected the run to carry the failure message")
	}
}

func TestExecuteEvaluateFailureReleasesModel(t *testing.T) {
	model := &stubModel{evalErr: errors.New("evaluate blew up")}
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)}, &stubTrainer{model: model})

	run, err := runner.Execute(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if run.Status != models.StatusFailed {
		t.Errorf("expected status %q, got %q", models.StatusFailed, run.Status)
	}
	if !model.closed {
		t.Error("model resources were not released on the failure path")
	}
}

func TestExecutePredictFailureReleasesModel(t *testing.T) {
	model := &stubModel{predictErr: errors.New("predict blew up")}
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)}, &stubTrainer{model: model})

	_, err := runner.Execute(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !model.closed {
		t.Error("model resources were not released on the failure path")
	}
}

func TestExecuteDoesNotLeakAcrossRuns(t *testing.T) {
	gen := &stubGenerator{batch: threeRecordBatch(1)}
	trainer := &stubTrainer{model: &stubModel{probs: []float64{0.9, 0.1, 0.5}}}
	runner := NewRunner(testConfig(3), gen, trainer)

	first, err := runner.Execute(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	gen.batch = threeRecordBatch(11)
	trainer.model = &stubModel{probs: []float64{0.2, 0.8, 0.6}}

	second, err := runner.Execute(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	for _, id := range []int{1, 2, 3} {
		if _, ok := second.Predictions[id]; ok {
			t.Errorf("second run leaked prediction for product %d from the first batch", id)
		}
	}
	for _, id := range []int{11, 12, 13} {
		if _, ok := second.Predictions[id]; !ok {
			t.Errorf("second run missing prediction for product %d", id)
		}
	}
	if len(first.Predictions) != 3 || first.Predictions[1] != models.DecisionReorder {
		t.Error("first run's predictions changed after the second run")
	}
}

func TestExecuteRejectsOverlappingRuns(t *testing.T) {
	trainer := &stubTrainer{
		model:   &stubModel{probs: []float64{0.9, 0.1, 0.5}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)}, trainer)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Execute(context.Background())
		done <- err
	}()

	<-trainer.started
	_, err := runner.Execute(context.Background())
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	close(trainer.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestExecuteReportsStatusTransitions(t *testing.T) {
	var seen []models.RunStatus
	runner := NewRunner(testConfig(3), &stubGenerator{batch: threeRecordBatch(1)},
		&stubTrainer{model: &stubModel{probs: []float64{0.9, 0.1, 0.5}}})
	runner.OnStatus = func(status models.RunStatus) {
		seen = append(seen, status)
	}

	if _, err := runner.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.RunStatus{
		models.StatusFetchingData,
		models.StatusDataLoaded,
		models.StatusPreparingTensors,
		models.StatusTrainingModel,
		models.StatusRunningPredictions,
		models.StatusComplete,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %v", len(want), len(seen), seen)
	}
	for k := range want {
		if seen[k] != want[k] {
			t.Errorf("transition %d: expected %q, got %q", k, want[k], seen[k])
		}
	}
}

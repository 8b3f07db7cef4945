package classifier

import (
	"context"
	"errors"
)

// Observer is invoked synchronously at each epoch boundary with the epoch
// number (1-based) and the mean training loss. It must not mutate the
// training data.
type Observer func(epoch int, loss float64)

// Options configures one training session.
type Options struct {
	HiddenLayers []int   // layer widths between input and the single output unit
	Epochs       int     // full passes over the batch
	LearningRate float64 // SGD step size
	Seed         int64   // weight init and per-epoch shuffling; 0 picks a time-based seed
	Observer     Observer
}

// Trainer produces a trained binary classifier from numeric feature vectors
// and {0,1} labels.
type Trainer interface {
	Train(ctx context.Context, features [][]float64, labels []float64, opts Options) (Model, error)
}

// Model is a trained classifier. Predict and Evaluate are order-preserving
// over their input rows. Close releases the model's buffers; a closed model
// rejects further calls.
type Model interface {
	Predict(features [][]float64) ([]float64, error)
	Evaluate(features [][]float64, labels []float64) (float64, error)
	Close() error
}

var (
	ErrNoTrainingData = errors.New("classifier: no training data")
	ErrShapeMismatch  = errors.New("classifier: features and labels have mismatched shapes")
	ErrModelClosed    = errors.New("classifier: model is closed")
)

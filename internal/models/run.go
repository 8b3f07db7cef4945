package models

// RunStatus tracks the lifecycle of one pipeline run.
type RunStatus string

const (
	StatusIdle               RunStatus = "Idle"
	StatusFetchingData       RunStatus = "Fetching Data"
	StatusDataLoaded         RunStatus = "Data Loaded"
	StatusPreparingTensors   RunStatus = "Preparing Tensors"
	StatusTrainingModel      RunStatus = "Training Model"
	StatusRunningPredictions RunStatus = "Running Predictions"
	StatusComplete           RunStatus = "Complete"
	StatusFailed             RunStatus = "Failed"
)

// Decision is the categorical reorder signal for one product.
type Decision string

const (
	DecisionReorder Decision = "Reorder"
	DecisionHealthy Decision = "Healthy"
)

// Run is the context object for a single pipeline execution: the batch it
// generated, the decision per product id and the terminal status. A run is
// created fresh per execution; predictions never carry over between runs.
type Run struct {
	ID          int              `json:"id"`
	Status      RunStatus        `json:"status"`
	Batch       Batch            `json:"batch"`
	Predictions map[int]Decision `json:"predictions"`
	Accuracy    float64          `json:"accuracy"` // in [0,1]
	Error       string           `json:"error,omitempty"`
	StartedAt   string           `json:"started_at,omitempty"`
	FinishedAt  string           `json:"finished_at,omitempty"`
}

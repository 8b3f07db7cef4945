package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Pipeline.BatchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.Epochs != 50 {
		t.Errorf("expected default epochs 50, got %d", cfg.Pipeline.Epochs)
	}
	if cfg.Pipeline.LearningRate != 0.05 {
		t.Errorf("expected default learning rate 0.05, got %v", cfg.Pipeline.LearningRate)
	}
	if cfg.Pipeline.LowStockProbability != 0.6 {
		t.Errorf("expected default low-stock probability 0.6, got %v", cfg.Pipeline.LowStockProbability)
	}
	if cfg.Pipeline.SafetyFactor != 0.5 {
		t.Errorf("expected default safety factor 0.5, got %v", cfg.Pipeline.SafetyFactor)
	}
	if cfg.Pipeline.DecisionThreshold != 0.5 {
		t.Errorf("expected default decision threshold 0.5, got %v", cfg.Pipeline.DecisionThreshold)
	}
	if cfg.Pipeline.FetchDelay != 800*time.Millisecond {
		t.Errorf("expected default fetch delay 800ms, got %v", cfg.Pipeline.FetchDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REORDER_SERVER_ADDR", ":9999")
	t.Setenv("REORDER_PIPELINE_EPOCHS", "7")
	t.Setenv("REORDER_PIPELINE_BATCH_SIZE", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %q", cfg.Server.Addr)
	}
	if cfg.Pipeline.Epochs != 7 {
		t.Errorf("expected epochs 7, got %d", cfg.Pipeline.Epochs)
	}
	if cfg.Pipeline.BatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.Pipeline.BatchSize)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-positive epochs", "REORDER_PIPELINE_EPOCHS", "0"},
		{"negative learning rate", "REORDER_PIPELINE_LEARNING_RATE", "-0.1"},
		{"probability above one", "REORDER_PIPELINE_LOW_STOCK_PROBABILITY", "1.5"},
		{"negative safety factor", "REORDER_PIPELINE_SAFETY_FACTOR", "-1"},
		{"threshold above one", "REORDER_PIPELINE_DECISION_THRESHOLD", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected Load to fail with %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadAllowsNonPositiveBatchSize(t *testing.T) {
	// A batch size of zero is handled downstream as an empty batch, not a
	// startup failure.
	t.Setenv("REORDER_PIPELINE_BATCH_SIZE", "0")
	if _, err := Load(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

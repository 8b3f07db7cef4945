package pipeline

import "github.com/rogerio-castellano/reorder-signal/internal/models"

// Decide maps each probability to a categorical decision, in order. The
// mapping is total: p > threshold yields Reorder, everything else
// (the threshold itself included) yields Healthy.
func Decide(probs []float64, threshold float64) []models.Decision {
	decisions := make([]models.Decision, len(probs))
	for k, p := range probs {
		if p > threshold {
			decisions[k] = models.DecisionReorder
		} else {
			decisions[k] = models.DecisionHealthy
		}
	}
	return decisions
}

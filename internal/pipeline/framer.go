package pipeline

import "github.com/rogerio-castellano/reorder-signal/internal/models"

// FeatureCount is the width of every feature vector: inventory, average
// weekly sales, lead time, in that order.
const FeatureCount = 3

// Frame converts a batch into feature vectors and {0,1} labels, one row per
// record and in batch order. It is a pure function of the batch: calling it
// twice yields identical sequences.
func Frame(batch models.Batch) ([][]float64, []float64) {
	features := make([][]float64, 0, len(batch.Records))
	labels := make([]float64, 0, len(batch.Records))

	for _, rec := range batch.Records {
		features = append(features, []float64{
			float64(rec.Inventory),
			rec.AvgSales,
			float64(rec.LeadTime),
		})
		if rec.GroundTruthReorder {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}

	return features, labels
}

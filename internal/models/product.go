package models

// ProductRecord represents one synthetic catalog entry.
type ProductRecord struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Inventory int     `json:"inventory"`
	AvgSales  float64 `json:"avg_sales"` // units sold per week
	LeadTime  int     `json:"lead_time"` // supplier lead time in days

	// GroundTruthReorder is computed once at generation time from the
	// inventory math and never recomputed afterwards. It is the label the
	// classifier is trained against.
	GroundTruthReorder bool `json:"ground_truth_reorder"`
}

// Batch is one generated set of product records, processed together and
// sharing normalization statistics. Batches are replaced wholesale on the
// next generation cycle.
type Batch struct {
	Records     []ProductRecord `json:"records"`
	GeneratedAt string          `json:"generated_at,omitempty"`
}

// Size returns the number of records in the batch.
func (b Batch) Size() int {
	return len(b.Records)
}

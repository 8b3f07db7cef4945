package synth

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

// categories is the fixed name pool, cycled by record index.
var categories = []string{"Widget", "Gadget", "Gizmo", "Sprocket", "Module"}

const (
	minAvgSales  = 5  // units per week, inclusive
	avgSalesSpan = 50 // draws land in [minAvgSales, minAvgSales+avgSalesSpan-1]
	minLeadTime  = 1  // days, inclusive
	leadTimeSpan = 14 // draws land in [minLeadTime, minLeadTime+leadTimeSpan-1]

	wellStockedHeadroom = 100 // extra units above the reorder point
)

// Generator produces synthetic product batches with a ground-truth reorder
// label derived from the classic reorder-point formula: demand expected
// during the supplier lead time plus a safety-stock margin.
type Generator struct {
	rng          *rand.Rand
	lowStockProb float64
	safetyFactor float64
}

// NewGenerator creates a Generator. lowStockProb is the probability of the
// low-stock inventory branch; safetyFactor scales lead-time demand into
// safety stock.
func NewGenerator(seed int64, lowStockProb, safetyFactor float64) *Generator {
	return &Generator{
		rng:          rand.New(rand.NewSource(seed)),
		lowStockProb: lowStockProb,
		safetyFactor: safetyFactor,
	}
}

// Generate returns a batch of exactly count records with ids 1..count.
// A count of zero or less yields an empty batch, not an error.
func (g *Generator) Generate(count int) models.Batch {
	batch := models.Batch{
		Records:     []models.ProductRecord{},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if count <= 0 {
		return batch
	}

	for i := 1; i <= count; i++ {
		avgSales := float64(minAvgSales + g.rng.Intn(avgSalesSpan))
		leadTime := minLeadTime + g.rng.Intn(leadTimeSpan)

		dailySales := avgSales / 7.0
		demandDuringLead := dailySales * float64(leadTime)
		safetyStock := demandDuringLead * g.safetyFactor
		reorderPoint := math.Ceil(demandDuringLead + safetyStock)

		// The low-stock branch draws uniformly over [0, reorderPoint), so
		// its records always land at or below the threshold. The skew
		// between the two branches is deliberate.
		var inventory int
		if g.rng.Float64() < g.lowStockProb {
			inventory = int(math.Floor(g.rng.Float64() * reorderPoint))
		} else {
			inventory = int(math.Floor(reorderPoint + g.rng.Float64()*wellStockedHeadroom))
		}

		batch.Records = append(batch.Records, models.ProductRecord{
			ID:                 i,
			Name:               categories[(i-1)%len(categories)] + " " + strconv.Itoa(i),
			Inventory:          inventory,
			AvgSales:           avgSales,
			LeadTime:           leadTime,
			GroundTruthReorder: float64(inventory) <= reorderPoint,
		})
	}

	return batch
}

// ReorderPoint recomputes the decision threshold quantity for a record. It
// exists for evaluation and display; the stored label is never recomputed.
func ReorderPoint(avgSales float64, leadTime int, safetyFactor float64) float64 {
	demand := avgSales / 7.0 * float64(leadTime)
	return math.Ceil(demand + demand*safetyFactor)
}

package statistics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const topMaterialsLimit = 10

// StatusCount is one bar of the status distribution.
type StatusCount struct {
	Status models.BatchStatus `json:"status"`
	Label  string             `json:"label"`
	Color  string             `json:"color"`
	Count  int                `json:"count"`
}

// MaterialUsage is the total consumption of a material across batches.
type MaterialUsage struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	QuantityType string          `json:"quantity_type,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Summary is the production statistics dashboard.
type Summary struct {
	BatchCount            int              `json:"batch_count"`
	TotalPieces           int              `json:"total_pieces"`
	TotalCost             decimal.Decimal  `json:"total_cost"`
	AveragePlanToCollect  *Duration        `json:"average_plan_to_collect"`
	AverageCollectToStore *Duration        `json:"average_collect_to_store"`
	AverageTotal          *Duration        `json:"average_total_duration"`
	StatusDistribution    []StatusCount    `json:"status_distribution"`
	TopMaterials          []MaterialUsage  `json:"top_materials"`
	Batches               []BatchDurations `json:"batches"`
}

// Summarize aggregates batches. Averages only count batches that reached the
// transitions a duration spans.
func Summarize(batches []models.ProductionBatch) Summary {
	summary := Summary{
		BatchCount: len(batches),
		TotalCost:  decimal.Zero,
		Batches:    make([]BatchDurations, 0, len(batches)),
	}

	var planToCollect, collectToStore, total []*time.Duration
	counts := make(map[models.BatchStatus]int)
	usage := make(map[int64]*MaterialUsage)
	var usageOrder []int64

	for _, batch := range batches {
		summary.TotalPieces += batch.QuantityTotal
		summary.TotalCost = summary.TotalCost.Add(batch.TotalCost)
		counts[batch.Status]++

		d := DurationsOf(batch)
		summary.Batches = append(summary.Batches, d)
		planToCollect = append(planToCollect, d.planToCollect)
		collectToStore = append(collectToStore, d.collectToStore)
		total = append(total, d.total)

		for _, m := range batch.Materials {
			u, ok := usage[m.MaterialID]
			if !ok {
				u = &MaterialUsage{MaterialID: m.MaterialID, MaterialName: m.MaterialName, QuantityType: m.QuantityType, Quantity: decimal.Zero}
				usage[m.MaterialID] = u
				usageOrder = append(usageOrder, m.MaterialID)
			}
			u.Quantity = u.Quantity.Add(m.QuantityUsed)
		}
	}

	summary.AveragePlanToCollect = average(planToCollect)
	summary.AverageCollectToStore = average(collectToStore)
	summary.AverageTotal = average(total)
	summary.StatusDistribution = distribution(counts)
	summary.TopMaterials = topMaterials(usage, usageOrder)
	return summary
}

func distribution(counts map[models.BatchStatus]int) []StatusCount {
	var out []StatusCount
	known := make(map[models.BatchStatus]bool)
	for _, status := range models.BatchStatuses() {
		known[status] = true
		if counts[status] == 0 {
			continue
		}
		info := status.Info()
		out = append(out, StatusCount{Status: status, Label: info.Label, Color: info.Color, Count: counts[status]})
	}

	var unknown []models.BatchStatus
	for status := range counts {
		if !known[status] {
			unknown = append(unknown, status)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, status := range unknown {
		info := status.Info()
		out = append(out, StatusCount{Status: status, Label: info.Label, Color: info.Color, Count: counts[status]})
	}
	return out
}

func topMaterials(usage map[int64]*MaterialUsage, order []int64) []MaterialUsage {
	out := make([]MaterialUsage, 0, len(order))
	for _, id := range order {
		out = append(out, *usage[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity.GreaterThan(out[j].Quantity)
	})
	if len(out) > topMaterialsLimit {
		out = out[:topMaterialsLimit]
	}
	return out
}

package requirements

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// SizeQuantity is one line of a per-size table.
type SizeQuantity struct {
	Size     string          `json:"size"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MaterialBreakdown is the per-size read-back of one configured material.
type MaterialBreakdown struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	QuantityType string          `json:"quantity_type,omitempty"`
	PerSize      []SizeQuantity  `json:"per_size"`
	Total        decimal.Decimal `json:"total"`
}

// Breakdown lists, for every size, the quantity of materialID one piece needs.
// Total sums the configured rows.
func Breakdown(rows []models.ProductMaterialRequirement, materialID int64, sizes []string) MaterialBreakdown {
	if models.IsOneSize(sizes) {
		sizes = []string{models.OneSize}
	}
	out := MaterialBreakdown{MaterialID: materialID, Total: decimal.Zero}

	var own []models.ProductMaterialRequirement
	for _, row := range rows {
		if row.MaterialID != materialID {
			continue
		}
		out.MaterialName = row.MaterialName
		out.QuantityType = row.QuantityType
		out.Total = out.Total.Add(row.QuantityNeeded)
		own = append(own, row)
	}

	perSize := perPiece(own, sizes)
	for _, size := range sizes {
		qty, ok := perSize[size]
		if !ok {
			qty = decimal.Zero
		}
		out.PerSize = append(out.PerSize, SizeQuantity{Size: size, Quantity: qty})
	}
	return out
}

// perPiece returns the per-piece quantity of each size for the rows of one
// material. A size row wins; the first size-less row covers the sizes left
// without one.
func perPiece(rows []models.ProductMaterialRequirement, sizes []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(sizes))
	var fallback *decimal.Decimal
	for _, row := range rows {
		if row.SizeSpecific == nil {
			if fallback == nil {
				qty := row.QuantityNeeded
				fallback = &qty
			}
			continue
		}
		out[*row.SizeSpecific] = row.QuantityNeeded
	}
	if fallback != nil {
		for _, size := range sizes {
			if _, set := out[size]; !set {
				out[size] = *fallback
			}
		}
	}
	return out
}

// MaterialNeed is the quantity of one material a production run consumes.
type MaterialNeed struct {
	MaterialID     int64           `json:"material_id"`
	MaterialName   string          `json:"material_name"`
	QuantityTypeID int64           `json:"quantity_type_id,omitempty"`
	QuantityType   string          `json:"quantity_type,omitempty"`
	PerSize        []SizeQuantity  `json:"per_size"`
	Total          decimal.Decimal `json:"total"`
}

// Aggregate multiplies the per-piece requirements by the planned quantities.
// Rows resolve per size as in Breakdown. Per-size lines follow the product's
// configured sizes, then any other planned size in name order. Needs are
// ordered by material name.
func Aggregate(rows []models.ProductMaterialRequirement, sizes []string, planned map[string]int) []MaterialNeed {
	ordered := plannedSizes(sizes, planned)

	byMaterial := make(map[int64][]models.ProductMaterialRequirement)
	var order []int64
	for _, row := range rows {
		if _, seen := byMaterial[row.MaterialID]; !seen {
			order = append(order, row.MaterialID)
		}
		byMaterial[row.MaterialID] = append(byMaterial[row.MaterialID], row)
	}

	out := make([]MaterialNeed, 0, len(order))
	for _, id := range order {
		own := byMaterial[id]
		first := own[0]
		need := MaterialNeed{
			MaterialID:     id,
			MaterialName:   first.MaterialName,
			QuantityTypeID: first.QuantityTypeID,
			QuantityType:   first.QuantityType,
			Total:          decimal.Zero,
		}

		perSize := perPiece(own, ordered)
		for _, size := range ordered {
			unit, ok := perSize[size]
			if !ok {
				continue
			}
			qty := unit.Mul(decimal.NewFromInt(int64(planned[size])))
			need.PerSize = append(need.PerSize, SizeQuantity{Size: size, Quantity: qty})
			need.Total = need.Total.Add(qty)
		}
		out = append(out, need)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].MaterialName) < strings.ToLower(out[j].MaterialName)
	})
	return out
}

// plannedSizes returns the sizes with pieces planned, configured sizes first.
func plannedSizes(sizes []string, planned map[string]int) []string {
	out := make([]string, 0, len(planned))
	seen := make(map[string]bool, len(planned))
	for _, size := range sizes {
		if planned[size] > 0 && !seen[size] {
			out = append(out, size)
			seen[size] = true
		}
	}
	var rest []string
	for size, qty := range planned {
		if qty > 0 && !seen[size] {
			rest = append(rest, size)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

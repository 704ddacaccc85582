package stock

import (
	"sort"
	"strings"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// SortKey selects the comparator applied to a material list.
type SortKey string

const (
	SortByQuantity SortKey = "quantity"
	SortByName     SortKey = "name"
	SortByStatus   SortKey = "status"
)

// ParseSortKey validates a sort key, defaulting to quantity.
func ParseSortKey(value string) (SortKey, bool) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(value))); key {
	case "":
		return SortByQuantity, true
	case SortByQuantity, SortByName, SortByStatus:
		return key, true
	}
	return "", false
}

// MaterialFilter holds the active filters of the stock list. Zero values disable a filter.
type MaterialFilter struct {
	Search     string              `form:"search"`
	CategoryID int64               `form:"category_id"`
	Location   string              `form:"location"`
	Status     models.StockStatus  `form:"status"`
	Type       models.MaterialType `form:"type"`
}

// FilterMaterials returns the levels that satisfy every active filter.
func FilterMaterials(levels []Level, f MaterialFilter) []Level {
	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if !matchesSearch(f.Search, l.Title, l.Reference, l.Color, l.CategoryName) {
			continue
		}
		if f.CategoryID != 0 && l.CategoryID != f.CategoryID {
			continue
		}
		if f.Location != "" && !strings.EqualFold(l.Location, f.Location) {
			continue
		}
		if f.Status != models.StockUnknown && l.Computed != f.Status {
			continue
		}
		if f.Type != "" && l.MaterialType != f.Type {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SortLevels returns a sorted copy of levels; the input is left untouched.
func SortLevels(levels []Level, key SortKey) []Level {
	out := append([]Level(nil), levels...)

	var less func(a, b Level) bool
	switch key {
	case SortByName:
		less = func(a, b Level) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortByStatus:
		less = func(a, b Level) bool {
			return Severity(a.Computed) < Severity(b.Computed)
		}
	default:
		less = func(a, b Level) bool {
			sa, sb := Severity(a.Computed), Severity(b.Computed)
			if sa != sb {
				return sa < sb
			}
			return a.QuantityTotal < b.QuantityTotal
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TransactionFilter holds the active filters of the stock ledger.
type TransactionFilter struct {
	Search           string                 `form:"search"`
	Type             models.TransactionType `form:"type"`
	MaterialID       int64                  `form:"material_id"`
	IncludeCancelled bool                   `form:"include_cancelled"`
}

// FilterTransactions returns the ledger entries that satisfy every active filter.
func FilterTransactions(txs []models.StockTransaction, f TransactionFilter) []models.StockTransaction {
	out := make([]models.StockTransaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.MaterialID != 0 && tx.MaterialID != f.MaterialID {
			continue
		}
		if tx.Cancelled && !f.IncludeCancelled {
			continue
		}
		if !matchesSearch(f.Search, tx.MaterialTitle, tx.Motif, tx.Reference, tx.UserName) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// ProductFilter holds the active filters of the subcontracted product list.
type ProductFilter struct {
	Search   string `form:"search"`
	ClientID int64  `form:"client_id"`
	Status   string `form:"status"`
}

// FilterProducts returns the products that satisfy every active filter.
func FilterProducts(products []models.SoustraitanceProduct, f ProductFilter) []models.SoustraitanceProduct {
	out := make([]models.SoustraitanceProduct, 0, len(products))
	for _, p := range products {
		if f.ClientID != 0 && p.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && !strings.EqualFold(p.Status, f.Status) {
			continue
		}
		if !matchesSearch(f.Search, p.Name, p.Reference, p.ClientName, p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

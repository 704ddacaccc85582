package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when a batch status change is not allowed.
var ErrInvalidTransition = errors.New("invalid batch status transition")

// BatchStatus is a step in a production batch lifecycle.
type BatchStatus string

const (
	BatchPlanned    BatchStatus = "planifie"
	BatchInProgress BatchStatus = "en_cours"
	BatchFinished   BatchStatus = "termine"
	BatchToCollect  BatchStatus = "en_a_collecter"
	BatchInStore    BatchStatus = "en_magasin"
	BatchCancelled  BatchStatus = "cancelled"
)

// BatchStatusInfo holds the display attributes of a status.
type BatchStatusInfo struct {
	Label    string
	Color    string
	Icon     string
	Progress int
	Terminal bool
}

var batchStatusTable = map[BatchStatus]BatchStatusInfo{
	BatchPlanned:    {Label: "Planifié", Color: "blue", Icon: "calendar", Progress: 10},
	BatchInProgress: {Label: "En cours", Color: "orange", Icon: "loader", Progress: 40},
	BatchFinished:   {Label: "Terminé", Color: "green", Icon: "check-circle", Progress: 70},
	BatchToCollect:  {Label: "À collecter", Color: "purple", Icon: "package", Progress: 85},
	BatchInStore:    {Label: "En magasin", Color: "emerald", Icon: "store", Progress: 100, Terminal: true},
	BatchCancelled:  {Label: "Annulé", Color: "red", Icon: "x-circle", Progress: 0, Terminal: true},
}

// batchTransitions lists the statuses that may follow each status.
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchPlanned:    {BatchInProgress, BatchCancelled},
	BatchInProgress: {BatchFinished, BatchCancelled},
	BatchFinished:   {BatchToCollect, BatchCancelled},
	BatchToCollect:  {BatchInStore, BatchCancelled},
}

// BatchStatuses returns every known status in lifecycle order.
func BatchStatuses() []BatchStatus {
	return []BatchStatus{BatchPlanned, BatchInProgress, BatchFinished, BatchToCollect, BatchInStore, BatchCancelled}
}

// ParseBatchStatus validates a raw status string.
func ParseBatchStatus(value string) (BatchStatus, error) {
	status := BatchStatus(value)
	if _, ok := batchStatusTable[status]; !ok {
		return "", fmt.Errorf("unknown batch status %q", value)
	}
	return status, nil
}

// Info returns the display attributes of the status.
func (s BatchStatus) Info() BatchStatusInfo {
	if info, ok := batchStatusTable[s]; ok {
		return info
	}
	return BatchStatusInfo{Label: string(s), Color: "gray", Icon: "help-circle"}
}

// NextStatuses lists the statuses reachable from s in one step.
func (s BatchStatus) NextStatuses() []BatchStatus {
	return append([]BatchStatus(nil), batchTransitions[s]...)
}

// CanTransitionTo reports whether s may be followed by next.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	for _, candidate := range batchTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from cannot move to to.
func ValidateTransition(from, to BatchStatus) error {
	if _, ok := batchStatusTable[to]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// StatusChange is one append-only entry of a batch status log.
type StatusChange struct {
	ID        int64       `json:"id,omitempty"`
	BatchID   int64       `json:"batch_id"`
	OldStatus BatchStatus `json:"old_status,omitempty"`
	NewStatus BatchStatus `json:"new_status"`
	ChangedBy string      `json:"changed_by,omitempty"`
	Comments  string      `json:"comments,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// BatchMaterialUsage is the quantity of a material consumed by a batch.
type BatchMaterialUsage struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	QuantityType string          `json:"quantity_type,omitempty"`
}

// ProductionBatch is one production run of a product.
type ProductionBatch struct {
	ID             int64                `json:"id"`
	BatchReference string               `json:"batch_reference"`
	ProductID      int64                `json:"product_id"`
	ProductName    string               `json:"product_name"`
	ProductType    string               `json:"product_type,omitempty"`
	QuantityTotal  int                  `json:"quantity_to_produce"`
	SizesBreakdown map[string]int       `json:"sizes_breakdown,omitempty"`
	Status         BatchStatus          `json:"status"`
	TotalCost      decimal.Decimal      `json:"total_materials_cost"`
	Notes          string               `json:"notes,omitempty"`
	CreatedBy      string               `json:"created_by,omitempty"`
	CreatedAt      time.Time            `json:"created_date"`
	UpdatedAt      time.Time            `json:"updated_date,omitempty"`
	Materials      []BatchMaterialUsage `json:"materials_used,omitempty"`
	StatusHistory  []StatusChange       `json:"status_history,omitempty"`
}

// FirstTransitionTo returns the earliest history entry whose new status is status.
func (b ProductionBatch) FirstTransitionTo(status BatchStatus) (StatusChange, bool) {
	history := append([]StatusChange(nil), b.StatusHistory...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ChangedAt.Before(history[j].ChangedAt)
	})
	for _, change := range history {
		if change.NewStatus == status {
			return change, true
		}
	}
	return StatusChange{}, false
}

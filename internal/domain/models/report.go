package models

import "time"

// StockSnapshot is the result of one stock scan, stored for history.
type StockSnapshot struct {
	ID        string              `bson:"_id" json:"id"`
	TakenAt   time.Time           `bson:"taken_at" json:"taken_at"`
	Total     int                 `bson:"total" json:"total"`
	Counts    map[StockStatus]int `bson:"counts" json:"counts"`
	Critical  []SnapshotItem      `bson:"critical" json:"critical"`
	Excess    []SnapshotItem      `bson:"excess" json:"excess"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// SnapshotItem is a single material line of a snapshot.
type SnapshotItem struct {
	MaterialID   int64       `bson:"material_id" json:"material_id"`
	Title        string      `bson:"title" json:"title"`
	Quantity     float64     `bson:"quantity" json:"quantity"`
	QuantityType string      `bson:"quantity_type" json:"quantity_type"`
	Minimum      float64     `bson:"minimum" json:"minimum"`
	Maximum      float64     `bson:"maximum" json:"maximum"`
	Status       StockStatus `bson:"status" json:"status"`
	Percentage   float64     `bson:"percentage" json:"percentage"`
}

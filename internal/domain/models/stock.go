package models

import "time"

// TransactionType is the direction of a stock movement.
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// StockTransaction is one entry of the stock ledger.
type StockTransaction struct {
	ID            int64           `json:"id"`
	MaterialID    int64           `json:"material_id"`
	MaterialTitle string          `json:"material_title"`
	Type          TransactionType `json:"type"`
	Quantity      float64         `json:"quantity"`
	QuantityType  string          `json:"quantity_type,omitempty"`
	UnitPrice     float64         `json:"price_per_unit,omitempty"`
	TotalPrice    float64         `json:"total_price,omitempty"`
	Motif         string          `json:"motif,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	UserID        int64           `json:"user_id,omitempty"`
	UserName      string          `json:"username,omitempty"`
	Cancelled     bool            `json:"cancelled"`
	CreatedAt     time.Time       `json:"date_transaction"`
}

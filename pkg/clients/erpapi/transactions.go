package erpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const transactionsEndpoint = "transactions_stock.php"

type transactionWire struct {
	ID            Int       `json:"id"`
	MaterialID    Int       `json:"material_id"`
	MaterialTitle Text      `json:"material_title"`
	Type          Text      `json:"type"`
	Quantity      Number    `json:"quantity"`
	QuantityType  Text      `json:"quantity_type"`
	UnitPrice     Number    `json:"price_per_unit"`
	TotalPrice    Number    `json:"total_price"`
	Motif         Text      `json:"motif"`
	Reference     Text      `json:"reference"`
	UserID        Int       `json:"user_id"`
	UserName      Text      `json:"username"`
	Cancelled     Bool      `json:"is_cancelled"`
	CreatedAt     Timestamp `json:"date_transaction"`
}

func (w transactionWire) toModel() models.StockTransaction {
	return models.StockTransaction{
		ID:            int64(w.ID),
		MaterialID:    int64(w.MaterialID),
		MaterialTitle: string(w.MaterialTitle),
		Type:          models.TransactionType(w.Type),
		Quantity:      float64(w.Quantity),
		QuantityType:  string(w.QuantityType),
		UnitPrice:     float64(w.UnitPrice),
		TotalPrice:    float64(w.TotalPrice),
		Motif:         string(w.Motif),
		Reference:     string(w.Reference),
		UserID:        int64(w.UserID),
		UserName:      string(w.UserName),
		Cancelled:     bool(w.Cancelled),
		CreatedAt:     w.CreatedAt.Time(),
	}
}

// ListTransactions returns the stock ledger, optionally restricted to one direction.
func (c *APIClient) ListTransactions(ctx context.Context, typ models.TransactionType) ([]models.StockTransaction, error) {
	var query map[string]string
	if typ != "" {
		query = map[string]string{"type": string(typ)}
	}
	var wires []transactionWire
	if err := c.get(ctx, transactionsEndpoint, query, &wires); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]models.StockTransaction, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out, nil
}

// CancelTransaction reverts a ledger entry on behalf of userID.
func (c *APIClient) CancelTransaction(ctx context.Context, transactionID, userID int64) error {
	body := map[string]any{
		"action":         "cancelTransaction",
		"transaction_id": transactionID,
		"user_id":        userID,
	}
	if _, _, err := c.do(ctx, call{method: http.MethodPost, endpoint: transactionsEndpoint, body: body}); err != nil {
		return fmt.Errorf("cancel transaction %d: %w", transactionID, err)
	}
	return nil
}

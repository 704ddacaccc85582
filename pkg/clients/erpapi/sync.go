package erpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/luccibyey/atelier/internal/domain/models"
)

var syncEndpoints = map[models.SyncTarget]string{
	models.SyncAll:              "sync_all.php",
	models.SyncLuccibyey:        "sync_luccibyey.php",
	models.SyncSpadadibattaglia: "sync_spadadibattaglia.php",
	models.SyncAllLucci:         "sync_all_lucci.php",
}

// SyncCatalog triggers a boutique catalog synchronization.
func (c *APIClient) SyncCatalog(ctx context.Context, target models.SyncTarget) (models.SyncResult, error) {
	endpoint, ok := syncEndpoints[target]
	if !ok {
		return models.SyncResult{}, fmt.Errorf("unknown sync target %q", target)
	}

	data, message, err := c.do(ctx, call{method: http.MethodPost, endpoint: endpoint})
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", target, err)
	}

	var counts struct {
		Added   Int `json:"added"`
		Updated Int `json:"updated"`
	}
	if err := decode(endpoint, data, &counts); err != nil {
		return models.SyncResult{}, err
	}

	return models.SyncResult{
		Target:  target,
		Message: message,
		Added:   int(counts.Added),
		Updated: int(counts.Updated),
	}, nil
}

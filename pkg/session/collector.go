package session

import (
	"context"
	"fmt"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
)

// Collector fetches the report list from a Backend.
type Collector struct {
	backend portal.Backend
}

// NewCollector returns a Collector for backend.
func NewCollector(backend portal.Backend) *Collector {
	return &Collector{backend: backend}
}

// FetchAll returns every listed item. The backend error stays reachable
// through errors.Is.
func (c *Collector) FetchAll(ctx context.Context) ([]portal.WorkItem, error) {
	items, err := c.backend.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}
	return items, nil
}

package headless

import (
	"fmt"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/gobwas/glob"
)

// SkippedItem is a requested or listed report that will not be confirmed.
type SkippedItem struct {
	ID     int    `json:"id"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// Selection is the outcome of applying a Selector to a listing.
type Selection struct {
	Items   []portal.WorkItem `json:"items"`
	Skipped []SkippedItem     `json:"skipped,omitempty"`
}

// IDs returns the selected ids in selection order.
func (s Selection) IDs() []int {
	ids := make([]int, 0, len(s.Items))
	for _, it := range s.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

// Selector picks reports out of a listing.
type Selector struct {
	ids           []int
	allPending    bool
	pendingStatus string
	include       []glob.Glob
	exclude       []glob.Glob
}

// NewSelector compiles the title patterns of cfg.
func NewSelector(cfg SelectionConfig) (*Selector, error) {
	s := &Selector{
		ids:           action.Distinct(cfg.IDs),
		allPending:    cfg.AllPending,
		pendingStatus: cfg.PendingStatus,
	}
	if s.pendingStatus == "" {
		s.pendingStatus = portal.StatusPending
	}

	for _, pattern := range cfg.Include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern '%s': %w", pattern, err)
		}
		s.include = append(s.include, g)
	}
	for _, pattern := range cfg.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
		s.exclude = append(s.exclude, g)
	}
	return s, nil
}

// Select applies the selection to items.
//
// With explicit ids the result follows the id order and ids missing from
// the listing are skipped. Otherwise every report in PendingStatus is taken
// in listing order. Title patterns then narrow either set.
func (s *Selector) Select(items []portal.WorkItem) Selection {
	var sel Selection
	var candidates []portal.WorkItem

	if len(s.ids) > 0 {
		byID := make(map[int]portal.WorkItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for _, id := range s.ids {
			it, ok := byID[id]
			if !ok {
				sel.Skipped = append(sel.Skipped, SkippedItem{ID: id, Reason: "not listed by portal"})
				continue
			}
			candidates = append(candidates, it)
		}
	} else if s.allPending {
		for _, it := range items {
			if it.Status == s.pendingStatus {
				candidates = append(candidates, it)
			}
		}
	}

	for _, it := range candidates {
		if reason, ok := s.titleAllowed(it.Title); !ok {
			sel.Skipped = append(sel.Skipped, SkippedItem{ID: it.ID, Title: it.Title, Reason: reason})
			continue
		}
		sel.Items = append(sel.Items, it)
	}
	return sel
}

func (s *Selector) titleAllowed(title string) (string, bool) {
	// Exclude patterns take precedence
	for _, g := range s.exclude {
		if g.Match(title) {
			return "title excluded", false
		}
	}
	if len(s.include) == 0 {
		return "", true
	}
	for _, g := range s.include {
		if g.Match(title) {
			return "", true
		}
	}
	return "title not included", false
}

package controller

import (
	"slices"
	"strings"

	"github.com/lodenross/boardctl/internal/model"
)

// Filter is the client-side view state: substring search, exact-match status
// and priority (model.FilterAll skips the check). Filtering never touches the
// network.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

// DefaultFilter matches everything.
func DefaultFilter() Filter {
	return Filter{Status: model.FilterAll, Priority: model.FilterAll}
}

func (f Filter) matches(r model.Resource) bool {
	if f.Search != "" {
		if !strings.Contains(strings.ToLower(r.SearchText()), strings.ToLower(f.Search)) {
			return false
		}
	}
	if f.Status != "" && f.Status != model.FilterAll && r.StatusValue() != f.Status {
		return false
	}
	if f.Priority != "" && f.Priority != model.FilterAll && r.PriorityValue() != f.Priority {
		return false
	}
	return true
}

// ViewResult is one page of the filtered collection.
type ViewResult[T model.Resource] struct {
	Items    []T
	Total    int // filtered count across all pages
	Page     int // 1-based, after clamping
	PageSize int
}

// TotalPages reports how many pages the filtered set spans. At least 1, so
// an empty result still renders as page 1 of 1.
func (v ViewResult[T]) TotalPages() int {
	if v.Total == 0 {
		return 1
	}
	return (v.Total + v.PageSize - 1) / v.PageSize
}

// SetFilter replaces the filter state and resets to the first page. Pure
// state update; the view is recomputed on the next View call.
func (c *Controller[T]) SetFilter(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.Status == "" {
		f.Status = model.FilterAll
	}
	if f.Priority == "" {
		f.Priority = model.FilterAll
	}
	c.filter = f
	c.page = 1
}

// Filter returns the current filter state.
func (c *Controller[T]) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetPage moves to a 1-based page. Values below 1 clamp to 1; pages past the
// end are clamped by the next View.
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.page = page
}

// Page returns the current 1-based page number.
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// View recomputes the filtered, paginated window: search, then status, then
// priority, then the page slice. Insertion order is the tie-break, so equal
// inputs always produce identical output.
func (c *Controller[T]) View() ViewResult[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var filtered []T
	for _, item := range c.items {
		if c.filter.matches(item) {
			filtered = append(filtered, item)
		}
	}

	size := c.opts.PageSize
	// Re-clamp: a shrunken result set pulls the window back to page 1.
	if (c.page-1)*size >= len(filtered) {
		c.page = 1
	}

	start := (c.page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return ViewResult[T]{
		Items:    slices.Clone(filtered[start:end]),
		Total:    len(filtered),
		Page:     c.page,
		PageSize: size,
	}
}

// clampPageLocked applies the same shrink rule after collection replacement.
func (c *Controller[T]) clampPageLocked() {
	var total int
	for _, item := range c.items {
		if c.filter.matches(item) {
			total++
		}
	}
	if (c.page-1)*c.opts.PageSize >= total {
		c.page = 1
	}
}

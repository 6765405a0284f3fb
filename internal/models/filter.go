package models

import "fmt"

// Filter selects which conversations appear in the list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterUnread    Filter = "unread"
	FilterFavorites Filter = "favorites"
	FilterGroups    Filter = "groups"
	FilterArchived  Filter = "archived"
)

// ValidFilters lists all recognized filters.
var ValidFilters = []Filter{
	FilterAll,
	FilterUnread,
	FilterFavorites,
	FilterGroups,
	FilterArchived,
}

// ParseFilter converts a string to a Filter.
func ParseFilter(s string) (Filter, error) {
	for _, f := range ValidFilters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter: %q", s)
}

// FilterContext is the full scope for counting, paging and selection: the
// list filter plus an optional category. Selection state is bound to one
// context and invalidated when it changes.
type FilterContext struct {
	Filter   Filter `json:"filter"`
	Category string `json:"category,omitempty"`
}

// Equal reports whether two contexts select the same matching set.
func (fc FilterContext) Equal(other FilterContext) bool {
	return fc.Filter == other.Filter && fc.Category == other.Category
}

// String returns a compact description for logging.
func (fc FilterContext) String() string {
	if fc.Category == "" {
		return string(fc.Filter)
	}
	return fmt.Sprintf("%s/%s", fc.Filter, fc.Category)
}

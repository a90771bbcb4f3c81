package orders

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// FilterSpec
// ---------------------------------------------------------------------------

// FilterSpec is the user-facing filter over the cached item set. It is a pure
// input with no side effects, persisted so the last-used filter survives a
// restart. Dates are kept as entered and normalized at comparison time;
// both "2006-01-02" and "02/01/2006" are accepted.
type FilterSpec struct {
	Search   string   `json:"search"`
	DateFrom string   `json:"date_from"`
	DateTo   string   `json:"date_to"`
	// Statuses holds UI labels or canonical values; empty means no restriction.
	Statuses []string `json:"statuses"`
}

// FilterPatch is a partial FilterSpec for merge updates. Nil fields keep the
// current value.
type FilterPatch struct {
	Search   *string   `json:"search,omitempty"`
	DateFrom *string   `json:"date_from,omitempty"`
	DateTo   *string   `json:"date_to,omitempty"`
	Statuses *[]string `json:"statuses,omitempty"`
}

// DefaultFilterSpec returns the reset filter: the current calendar month, no
// status restriction, empty search.
func DefaultFilterSpec(now time.Time) FilterSpec {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return FilterSpec{
		DateFrom: first.Format("2006-01-02"),
		DateTo:   last.Format("2006-01-02"),
	}
}

// Merge applies a partial update and returns the merged spec.
func (f FilterSpec) Merge(p FilterPatch) FilterSpec {
	if p.Search != nil {
		f.Search = *p.Search
	}
	if p.DateFrom != nil {
		f.DateFrom = *p.DateFrom
	}
	if p.DateTo != nil {
		f.DateTo = *p.DateTo
	}
	if p.Statuses != nil {
		f.Statuses = append([]string(nil), (*p.Statuses)...)
	}
	return f
}

// dateLayouts are the accepted filter date formats, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseFilterDate parses a filter date in any accepted layout.
func ParseFilterDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------------------------------------------------------------------
// Filter Engine
// ---------------------------------------------------------------------------

// searchFolder strips diacritics so "São" matches "sao".
var searchFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldSearch(s string) string {
	folded, _, err := transform.String(searchFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// ApplyFilter returns the items matching the spec, deterministically ordered:
// order date descending, then line total descending, stable for equal keys.
// Pure function; the input slice is never mutated.
func ApplyFilter(items []EnrichedItem, spec FilterSpec) []EnrichedItem {
	search := foldSearch(spec.Search)
	from, hasFrom := ParseFilterDate(spec.DateFrom)
	to, hasTo := ParseFilterDate(spec.DateTo)
	if hasTo {
		// Inclusive upper bound: anything before the start of the next day.
		to = to.AddDate(0, 0, 1)
	}

	allowed := make(map[Status]bool, len(spec.Statuses))
	for _, raw := range spec.Statuses {
		if s, ok := CanonicalStatus(raw); ok {
			allowed[s] = true
		}
	}

	out := make([]EnrichedItem, 0, len(items))
	for _, item := range items {
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		if hasFrom && item.OrderDate.Before(from) {
			continue
		}
		if hasTo && !item.OrderDate.Before(to) {
			continue
		}
		if len(allowed) > 0 && !allowed[item.Status] {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].LineTotal.GreaterThan(out[j].LineTotal)
	})
	return out
}

// matchesSearch tests the folded search term against order number, customer,
// SKU and description (logical OR).
func matchesSearch(item EnrichedItem, folded string) bool {
	return strings.Contains(foldSearch(item.OrderNumber), folded) ||
		strings.Contains(foldSearch(item.Customer), folded) ||
		strings.Contains(foldSearch(item.SKU), folded) ||
		strings.Contains(foldSearch(item.Description), folded)
}

// Package viewmodel derives what the pages show from raw expense lists.
// Every function is pure: inputs are never mutated and results never alias them.
package viewmodel

import (
	"slices"
	"strings"

	"expensetracker/internal/core"
)

type (
	SortKey       string
	SortDirection string

	// Filter is the list page's predicate state; zero fields are inactive.
	Filter struct {
		Search string
		Start  core.Timestamp
		End    core.Timestamp
	}

	Sort struct {
		Key       SortKey
		Direction SortDirection
	}

	// Query is the full list page state carried in the query string.
	Query struct {
		Filter Filter
		Sort   Sort
		Page   int
		Size   int
	}

	// ListView is one rendered page of the expense list.
	ListView struct {
		Items []core.Expense
		// Matched is the number of expenses passing the filter, across all pages.
		Matched int
		Page    int
		Size    int
		Pages   int
		Query   Query
	}
)

const (
	SortByDate        SortKey = "date"
	SortByDescription SortKey = "description"
	SortByCategory    SortKey = "category"
	SortByAmount      SortKey = "amount"

	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// PageSizes are the selectable list page sizes.
var PageSizes = []int{5, 10, 25}

const DefaultPageSize = 10

// DefaultSort shows the newest expenses first.
var DefaultSort = Sort{Key: SortByDate, Direction: Descending}

func (f Filter) IsActive() bool {
	return f.Search != "" || !f.Start.IsZero() || !f.End.IsZero()
}

func (f Filter) matches(e core.Expense, term string) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(e.Description), term) &&
		!strings.Contains(strings.ToLower(string(e.Category)), term) &&
		!strings.Contains(strings.ToLower(e.Category.Label()), term) {
		return false
	}
	if !f.Start.IsZero() && e.Date.Before(f.Start.Time) {
		return false
	}
	if !f.End.IsZero() && e.Date.After(f.End.Time) {
		return false
	}
	return true
}

// FilterExpenses keeps expenses whose description, category tag or category
// label contains the search term (case-insensitive) and whose date lies within [Start, End].
func FilterExpenses(expenses []core.Expense, f Filter) []core.Expense {
	term := strings.ToLower(f.Search)
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.matches(e, term) {
			out = append(out, e)
		}
	}
	return out
}

func (k SortKey) Valid() bool {
	switch k {
	case SortByDate, SortByDescription, SortByCategory, SortByAmount:
		return true
	}
	return false
}

func (d SortDirection) Valid() bool {
	return d == Ascending || d == Descending
}

func compareBy(key SortKey) func(a, b core.Expense) int {
	switch key {
	case SortByDescription:
		return func(a, b core.Expense) int { return strings.Compare(a.Description, b.Description) }
	case SortByCategory:
		return func(a, b core.Expense) int { return strings.Compare(string(a.Category), string(b.Category)) }
	case SortByAmount:
		return func(a, b core.Expense) int { return a.Amount.Cmp(b.Amount) }
	default:
		return func(a, b core.Expense) int { return a.Date.Compare(b.Date.Time) }
	}
}

// SortExpenses returns a stably sorted copy. Ties keep their input order in
// both directions; an unknown key sorts by date.
func SortExpenses(expenses []core.Expense, s Sort) []core.Expense {
	out := slices.Clone(expenses)
	cmp := compareBy(s.Key)
	if s.Direction == Descending {
		slices.SortStableFunc(out, func(a, b core.Expense) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

// Paginate returns the half-open window [page*size, page*size+size) clipped
// to the input. A negative or out-of-range page, or a non-positive size,
// yields an empty slice.
func Paginate(expenses []core.Expense, page, size int) []core.Expense {
	if page < 0 || size <= 0 {
		return []core.Expense{}
	}
	if page > (len(expenses)-1)/size || len(expenses) == 0 {
		return []core.Expense{}
	}
	start := page * size
	end := min(start+size, len(expenses))
	return slices.Clone(expenses[start:end])
}

// PageCount is the number of pages needed for total items.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Apply runs filter, sort and pagination in that order.
func Apply(expenses []core.Expense, q Query) ListView {
	matched := SortExpenses(FilterExpenses(expenses, q.Filter), q.Sort)
	return ListView{
		Items:   Paginate(matched, q.Page, q.Size),
		Matched: len(matched),
		Page:    q.Page,
		Size:    q.Size,
		Pages:   PageCount(len(matched), q.Size),
		Query:   q,
	}
}

func (v ListView) HasPrev() bool { return v.Page > 0 }
func (v ListView) HasNext() bool { return v.Page+1 < v.Pages }

// First and Last are the 1-based item positions shown on this page.
func (v ListView) First() int {
	if len(v.Items) == 0 {
		return 0
	}
	return v.Page*v.Size + 1
}

func (v ListView) Last() int {
	if len(v.Items) == 0 {
		return 0
	}
	return v.Page*v.Size + len(v.Items)
}

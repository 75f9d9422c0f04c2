package viewmodel

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// ParseQuery reads the list page state from a query string. Unknown or
// malformed values fall back to defaults; it never fails. An end date names
// a calendar day and covers all of it.
func ParseQuery(v url.Values, defaultSize int) Query {
	if !slices.Contains(PageSizes, defaultSize) {
		defaultSize = DefaultPageSize
	}
	q := Query{Sort: DefaultSort, Size: defaultSize}

	q.Filter.Search = strings.TrimSpace(v.Get("search"))
	if d, err := core.ParseDate(v.Get("start")); err == nil {
		q.Filter.Start = d
	}
	if d, err := core.ParseDate(v.Get("end")); err == nil {
		q.Filter.End = d.EndOfDay()
	}

	if k := SortKey(v.Get("sort")); k.Valid() {
		q.Sort.Key = k
	}
	if d := SortDirection(v.Get("dir")); d.Valid() {
		q.Sort.Direction = d
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil && slices.Contains(PageSizes, n) {
		q.Size = n
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n >= 0 {
		q.Page = n
	}
	return q
}

// Values encodes the query back into its query string form, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Filter.Search != "" {
		v.Set("search", q.Filter.Search)
	}
	if !q.Filter.Start.IsZero() {
		v.Set("start", q.Filter.Start.DateString())
	}
	if !q.Filter.End.IsZero() {
		v.Set("end", q.Filter.End.DateString())
	}
	if q.Sort != DefaultSort {
		v.Set("sort", string(q.Sort.Key))
		v.Set("dir", string(q.Sort.Direction))
	}
	if q.Size != DefaultPageSize && q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// WithPage moves to another page keeping filter and sort.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// WithSort toggles direction when key is already the sort key; otherwise it
// sorts ascending by key. Changing the sort returns to the first page.
func (q Query) WithSort(key SortKey) Query {
	if q.Sort.Key == key {
		if q.Sort.Direction == Ascending {
			q.Sort.Direction = Descending
		} else {
			q.Sort.Direction = Ascending
		}
	} else {
		q.Sort = Sort{Key: key, Direction: Ascending}
	}
	q.Page = 0
	return q
}

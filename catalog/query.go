package catalog

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultPageSize matches the page size the catalog service uses when none is given.
	DefaultPageSize = 200
	// MaxPageSize is the largest page the catalog service returns.
	MaxPageSize = 1000
	// DefaultSortField is the field listings are sorted by unless configured otherwise.
	DefaultSortField = SortByTitle
)

// SortOrder is the direction of a listing sort.
type SortOrder string

const (
	// SortAsc sorts ascending.
	SortAsc SortOrder = "asc"
	// SortDesc sorts descending.
	SortDesc SortOrder = "desc"
)

// SortField names a sortable Record field as the catalog service knows it.
type SortField string

// Sortable fields.
const (
	SortByID     SortField = "id"
	SortByTitle  SortField = "title"
	SortByAuthor SortField = "author"
	SortByISBN   SortField = "isbn"
	SortByStatus SortField = "status"
)

// IsValid reports whether the field is sortable.
func (f SortField) IsValid() bool {
	switch f {
	case SortByID, SortByTitle, SortByAuthor, SortByISBN, SortByStatus:
		return true
	default:
		return false
	}
}

// IsValid reports whether the order is asc or desc.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// ListQuery describes one paginated, filtered, sorted list request.
type ListQuery struct {
	PageIndex int
	PageSize  int
	Search    string
	SortBy    SortField
	Order     SortOrder
	Statuses  FilterSet
}

// BuildListQuery creates a ListQuery for the first page with default sorting and page size.
func BuildListQuery(search string, statuses FilterSet) ListQuery {
	return ListQuery{
		PageIndex: 0,
		PageSize:  DefaultPageSize,
		Search:    search,
		SortBy:    DefaultSortField,
		Order:     SortAsc,
		Statuses:  statuses,
	}
}

// WithPage returns a copy of q targeting the given page.
func (q ListQuery) WithPage(pageIndex int) ListQuery {
	q.PageIndex = pageIndex
	q.Statuses = q.Statuses.Clone()

	return q
}

// Validate reports a malformed query as ErrValidation.
// Empty sort field and order are accepted and mean the defaults.
func (q ListQuery) Validate() error {
	if q.PageIndex < 0 {
		return errors.Join(ErrValidation, fmt.Errorf("page index must not be negative, got %d", q.PageIndex))
	}

	if q.PageSize < 0 || q.PageSize > MaxPageSize {
		return errors.Join(ErrValidation, fmt.Errorf("page size must be between 0 and %d, got %d", MaxPageSize, q.PageSize))
	}

	if _, ok := q.Offset(); !ok {
		return errors.Join(ErrValidation, fmt.Errorf("page index %d is out of range", q.PageIndex))
	}

	if q.SortBy != "" && !q.SortBy.IsValid() {
		return errors.Join(ErrValidation, fmt.Errorf("unsupported sort field %q", q.SortBy))
	}

	if q.Order != "" && !q.Order.IsValid() {
		return errors.Join(ErrValidation, fmt.Errorf("unsupported sort order %q", q.Order))
	}

	return nil
}

// Offset returns the number of records before the requested page, using the default page size when none is set.
// It reports false when the offset does not fit into an int64.
func (q ListQuery) Offset() (int64, bool) {
	size := int64(q.PageSize)
	if size == 0 {
		size = DefaultPageSize
	}

	index := int64(q.PageIndex)
	if index < 0 || index > math.MaxInt64/size {
		return 0, false
	}

	return index * size, true
}

// Normalized returns a copy with the defaults filled in for empty fields.
func (q ListQuery) Normalized() ListQuery {
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}

	if q.SortBy == "" {
		q.SortBy = DefaultSortField
	}

	if q.Order == "" {
		q.Order = SortAsc
	}

	return q
}

// Page is one page of a list response.
type Page struct {
	Content       Records
	TotalElements int64
	TotalPages    int
	Last          bool
	Size          int
	Number        int
}

// HasMore reports whether the catalog confirmed further pages after this one.
func (p Page) HasMore() bool {
	return !p.Last
}

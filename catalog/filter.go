package catalog

import "strings"

// FilterSet maps a Status to whether records in that status are included.
//
// An empty or all-false FilterSet means "no filter": all statuses are visible,
// and no status parameter is sent to the catalog service.
type FilterSet map[Status]bool

// NewFilterSet builds a FilterSet including exactly the given statuses.
func NewFilterSet(statuses ...Status) FilterSet {
	fs := make(FilterSet, len(statuses))
	for _, s := range statuses {
		fs[s] = true
	}

	return fs
}

// Included returns the included statuses in display order.
func (fs FilterSet) Included() []Status {
	included := make([]Status, 0, len(fs))
	for _, s := range AllStatuses() {
		if fs[s] {
			included = append(included, s)
		}
	}

	return included
}

// IsEmpty reports whether no status is included.
func (fs FilterSet) IsEmpty() bool {
	return len(fs.Included()) == 0
}

// Allows reports whether a record in status s is visible under this filter.
func (fs FilterSet) Allows(s Status) bool {
	if fs.IsEmpty() {
		return true
	}

	return fs[s]
}

// Toggle returns a copy with the inclusion of s flipped.
func (fs FilterSet) Toggle(s Status) FilterSet {
	toggled := fs.Clone()
	toggled[s] = !toggled[s]

	return toggled
}

// Clone returns an independent copy.
func (fs FilterSet) Clone() FilterSet {
	cloned := make(FilterSet, len(fs))
	for s, included := range fs {
		cloned[s] = included
	}

	return cloned
}

// Equal reports whether both sets include the same statuses.
func (fs FilterSet) Equal(other FilterSet) bool {
	a, b := fs.Included(), other.Included()
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// String renders the included statuses comma-separated, the way the catalog service expects them.
func (fs FilterSet) String() string {
	included := fs.Included()
	names := make([]string, len(included))
	for i, s := range included {
		names[i] = s.String()
	}

	return strings.Join(names, ",")
}

// ParseFilterSet parses a comma-separated status list, e.g. "AVAILABLE,RESERVED".
// Blank input yields an empty FilterSet.
func ParseFilterSet(raw string) (FilterSet, error) {
	fs := FilterSet{}

	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		s, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}

		fs[s] = true
	}

	return fs, nil
}

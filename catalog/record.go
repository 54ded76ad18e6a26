package catalog

// Record is a single catalog entry (book) with its lending status.
// ID is assigned by the catalog service and never changes once created.
type Record struct {
	ID       int64
	Title    string
	Author   string
	ISBN     string
	CoverURL string
	Status   Status
}

// Draft is a Record that does not exist in the catalog yet, so it has no ID.
type Draft struct {
	Title    string
	Author   string
	ISBN     string
	CoverURL string
	Status   Status
}

// ToRecord returns the Record the catalog would store for this Draft under the given id.
func (d Draft) ToRecord(id int64) Record {
	return Record{
		ID:       id,
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		CoverURL: d.CoverURL,
		Status:   d.Status,
	}
}

// Draft returns the editable fields of r.
func (r Record) Draft() Draft {
	return Draft{
		Title:    r.Title,
		Author:   r.Author,
		ISBN:     r.ISBN,
		CoverURL: r.CoverURL,
		Status:   r.Status,
	}
}

// Records is an ordered sequence of Record.
type Records []Record

// IndexOf returns the position of the record with the given id, or -1.
func (rs Records) IndexOf(id int64) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}

	return -1
}

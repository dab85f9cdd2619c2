package search

// SearchRequest is the typed search derived from one inbound request.
// StartRow and MaxRows are nil when the client did not set them.
type SearchRequest struct {
	Topic    string
	Criteria CompositeCriteria
	StartRow *int64
	MaxRows  *int64
}

// Window returns the effective skip offset and, when bounded, the row limit.
func (r SearchRequest) Window() (start int64, max int64, bounded bool) {
	if r.StartRow != nil && *r.StartRow > 0 {
		start = *r.StartRow
	}
	if r.MaxRows != nil {
		return start, *r.MaxRows, true
	}
	return start, 0, false
}

package models

// CandidateQuery is the caller input for a full prediction run. Filters are
// optional substrings matched case-insensitively against the dataset.
type CandidateQuery struct {
	Rank       int
	Category   string
	State      string
	Course     string
	Quota      string
	MaxResults int
}

// OfferFilter narrows the index to offers matching every non-empty field.
type OfferFilter struct {
	State    string
	Course   string
	Category string
	Quota    string
}

// Facets lists the distinct values present in the loaded dataset, used to
// populate search dropdowns.
type Facets struct {
	States     []string
	Courses    []string
	Categories []string
	Quotas     []string
}

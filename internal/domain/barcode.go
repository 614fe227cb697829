package domain

// RawDocument is the decoded upstream response for a single lookup
type RawDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// LookupResult is the structured product data extracted from an upstream page.
// Absent fields are nil and serialize as JSON null.
type LookupResult struct {
	Barcode     string  `json:"barcode"`
	Name        *string `json:"name"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	Found       bool    `json:"found"` // true iff Name is present
}

// LookupFailure is the response body returned when a lookup cannot complete
type LookupFailure struct {
	Error string `json:"error"`
	Found bool   `json:"found"`
}

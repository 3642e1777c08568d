package models

// OriginOption is a departure port as rendered in the origin selection control.
// Label has the fixed upstream format "<city>|<code> - <name>".
type OriginOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DestinationRecord is one output row. Field order defines the JSON key order.
type DestinationRecord struct {
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
	ID   int    `json:"id"`
	Dest string `json:"dest"`
}

// ResultSet is the ordered collection of records, one per origin option.
type ResultSet []DestinationRecord

// SessionContext is what the page yields before any dependent request is made.
type SessionContext struct {
	Token   string
	Origins []OriginOption
}

// TransportMode selects how dependent requests reach the destinations endpoint
type TransportMode string

const (
	// TransportPage issues requests with fetch() inside the loaded page
	TransportPage TransportMode = "page"
	// TransportHTTP copies the browser cookies into a standalone HTTP client
	TransportHTTP TransportMode = "http"
)

package crossref

// SearchResponse represents the top-level response from the Crossref works API.
type SearchResponse struct {
	Status  string  `json:"status"`
	Message Message `json:"message"`
}

// Message holds the payload of a Crossref works query.
type Message struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work represents a single work in a Crossref response.
type Work struct {
	DOI                 string        `json:"DOI"`
	Title               []string      `json:"title"`
	Abstract            string        `json:"abstract,omitempty"` // JATS XML fragment
	Authors             []WorkAuthor  `json:"author,omitempty"`
	ContainerTitle      []string      `json:"container-title,omitempty"`
	ShortContainerTitle []string      `json:"short-container-title,omitempty"`
	Issued              PartialDate   `json:"issued"`
	PublishedPrint      *PartialDate  `json:"published-print,omitempty"`
	PublishedOnline     *PartialDate  `json:"published-online,omitempty"`
	IsReferencedByCount int           `json:"is-referenced-by-count"`
	Type                string        `json:"type"`
	URL                 string        `json:"URL"`
	Links               []ContentLink `json:"link,omitempty"`
	Subjects            []string      `json:"subject,omitempty"`
}

// WorkAuthor represents an author entry in a Crossref work.
type WorkAuthor struct {
	Given        string        `json:"given,omitempty"`
	Family       string        `json:"family,omitempty"`
	Name         string        `json:"name,omitempty"` // collective/org author
	ORCID        string        `json:"ORCID,omitempty"`
	Affiliations []Affiliation `json:"affiliation,omitempty"`
}

// Affiliation represents an author affiliation.
type Affiliation struct {
	Name string `json:"name"`
}

// PartialDate is Crossref's date-parts representation: [[year, month, day]]
// where month and day may be absent.
type PartialDate struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 when absent.
func (d PartialDate) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// ContentLink represents a full-text link attached to a work.
type ContentLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type,omitempty"`
	Application string `json:"intended-application,omitempty"`
}

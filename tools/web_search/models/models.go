package models

// Organic is one ranked web result.
type Organic struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Question is a "people also ask" style entry.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is the normalised answer of any search backend.
type Result struct {
	Provider  string     `json:"provider"`
	Query     string     `json:"query"`
	Organic   []Organic  `json:"organic"`
	Questions []Question `json:"questions"`
}

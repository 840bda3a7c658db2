package api

// Error is the body of every non-2xx response. Step is set when a
// publication failed part way; Orphaned reports that the post page was
// written but the index was not.
type Error struct {
	Error    string `json:"error"`
	Step     string `json:"step,omitempty"`
	Orphaned bool   `json:"orphaned,omitempty"`
}

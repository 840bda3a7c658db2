package domain

import (
	"sort"
	"time"
)

// DateLayout is the ISO 8601 calendar date format used for PostRecord.Date.
const DateLayout = "2006-01-02"

// PostRecord is one entry in the post index.
// ID is the storage path of the rendered page and doubles as the primary key.
// The JSON names match the index file consumed by the public feed.
type PostRecord struct {
	ID           string   `json:"url"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Tags         []string `json:"tags"`
	Excerpt      string   `json:"excerpt"`
	RenderedBody string   `json:"contentHtml"`
}

// PublishedOn parses Date. A malformed date yields the zero time.
func (p PostRecord) PublishedOn() time.Time {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// MonthKey returns the YYYY-MM prefix of Date.
func (p PostRecord) MonthKey() string {
	if len(p.Date) < 7 {
		return p.Date
	}
	return p.Date[:7]
}

// Index is a snapshot of the post index as read from the content store.
// Revision is empty when the index file does not exist yet.
// Corrupt is set when the stored file could not be parsed and Records was
// replaced by an empty collection.
type Index struct {
	Records  []PostRecord
	Revision string
	Corrupt  bool
}

// Find returns the position of the record with the given ID, or -1.
func (idx *Index) Find(id string) int {
	for i, r := range idx.Records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// SortRecords orders records by Date, newest first.
// ISO dates compare correctly as strings.
func SortRecords(records []PostRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}

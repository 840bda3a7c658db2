package application

import (
	"sort"
	"strings"

	"github.com/dfryer1193/gitpress/blog/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const defaultPageSize = 10

// Feed is a read-only view over an index snapshot.
type Feed struct {
	records []domain.PostRecord
	lang    language.Tag
}

// NewFeed copies records and orders them newest first. lang controls tag ordering.
func NewFeed(records []domain.PostRecord, lang string) *Feed {
	sorted := make([]domain.PostRecord, len(records))
	copy(sorted, records)
	domain.SortRecords(sorted)

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Swedish
	}
	return &Feed{records: sorted, lang: tag}
}

// FeedQuery selects a page of posts. Months are YYYY-MM keys and match any;
// a post matches Tags when it carries at least one of them. Text matches the
// title, tags and identifier case-insensitively.
type FeedQuery struct {
	Months   []string
	Tags     []string
	Text     string
	Page     int
	PageSize int
}

type FeedPage struct {
	Items      []domain.PostRecord
	Page       int
	PageSize   int
	TotalPages int
	Total      int
}

// Query filters, then paginates. The page is clamped to the available range
// and there is always at least one page.
func (f *Feed) Query(q FeedQuery) FeedPage {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	months := toSet(q.Months)
	tags := toSet(q.Tags)
	text := strings.ToLower(strings.TrimSpace(q.Text))

	matched := make([]domain.PostRecord, 0, len(f.records))
	for _, r := range f.records {
		if len(months) > 0 {
			if _, ok := months[r.MonthKey()]; !ok {
				continue
			}
		}
		if len(tags) > 0 && !hasAnyTag(r, tags) {
			continue
		}
		if text != "" && !strings.Contains(searchText(r), text) {
			continue
		}
		matched = append(matched, r)
	}

	totalPages := (len(matched) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return FeedPage{
		Items:      matched[start:end],
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Total:      len(matched),
	}
}

// Search returns every post whose title, tags or identifier contains q.
func (f *Feed) Search(q string) []domain.PostRecord {
	text := strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.PostRecord, 0)
	for _, r := range f.records {
		if strings.Contains(searchText(r), text) {
			out = append(out, r)
		}
	}
	return out
}

// Months returns the distinct YYYY-MM keys, newest first.
func (f *Feed) Months() []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range f.records {
		key := r.MonthKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Tags returns the distinct tags in the feed language's collation order.
func (f *Feed) Tags() []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, r := range f.records {
		for _, t := range r.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	collate.New(f.lang).SortStrings(tags)
	return tags
}

func searchText(r domain.PostRecord) string {
	return strings.ToLower(r.Title + " " + strings.Join(r.Tags, " ") + " " + r.ID)
}

func hasAnyTag(r domain.PostRecord, tags map[string]struct{}) bool {
	for _, t := range r.Tags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Package view derives display views from an in-memory list of
// denormalized snippets: filtering, ordering, and aggregate statistics.
//
// Everything here is pure and synchronous — no storage, no logging, no
// clock. The functions never mutate their input; Sort returns a fresh
// slice. That makes them safe to apply to the same fetched list any number
// of times with different parameters.
package view

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dhkim/snipstash/internal/model"
)

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortTitleAsc  SortKey = "title-asc"
	SortTitleDesc SortKey = "title-desc"
	SortLanguage  SortKey = "language"
)

// ParseSortKey maps a raw string (typically a query parameter) to a
// SortKey, defaulting to newest-first for anything unrecognized.
func ParseSortKey(raw string) SortKey {
	switch SortKey(raw) {
	case SortOldest, SortTitleAsc, SortTitleDesc, SortLanguage:
		return SortKey(raw)
	default:
		return SortNewest
	}
}

// Query describes a filter over the snippet list. The zero value matches
// everything.
type Query struct {
	// Text matches case-insensitively against title, description, code,
	// and every tag name. Empty matches all.
	Text string
	// Language must equal the snippet's language exactly; "" or "all"
	// matches any.
	Language string
	// FavoritesOnly keeps only favorited snippets when set.
	FavoritesOnly bool
}

// Filter returns the subset of list matching q, preserving input order.
func Filter(list []model.SnippetWithTags, q Query) []model.SnippetWithTags {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	anyLanguage := q.Language == "" || q.Language == "all"

	out := make([]model.SnippetWithTags, 0, len(list))
	for _, s := range list {
		if !anyLanguage && s.Language != q.Language {
			continue
		}
		if q.FavoritesOnly && !s.Favorite {
			continue
		}
		if text != "" && !matchesText(s, text) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// matchesText reports whether the lowercased query appears in any of the
// snippet's searchable fields.
func matchesText(s model.SnippetWithTags, text string) bool {
	if strings.Contains(strings.ToLower(s.Title), text) ||
		strings.Contains(strings.ToLower(s.Description), text) ||
		strings.Contains(strings.ToLower(s.Code), text) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag.Name), text) {
			return true
		}
	}
	return false
}

// Sort returns a new slice holding list reordered by key. The sort is
// stable: ties keep their prior relative order, so chained Filter+Sort
// results are deterministic.
//
// Title and language comparisons are locale-aware (Unicode collation via
// x/text) rather than byte-wise — "École" sorts with "E", not after "z".
func Sort(list []model.SnippetWithTags, key SortKey) []model.SnippetWithTags {
	out := make([]model.SnippetWithTags, len(list))
	copy(out, list)

	// A collator is stateful and not safe for concurrent use, so build one
	// per call rather than sharing a package-level instance.
	c := collate.New(language.Und, collate.IgnoreCase)

	var less func(a, b model.SnippetWithTags) bool
	switch key {
	case SortOldest:
		less = func(a, b model.SnippetWithTags) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortTitleAsc:
		less = func(a, b model.SnippetWithTags) bool { return c.CompareString(a.Title, b.Title) < 0 }
	case SortTitleDesc:
		less = func(a, b model.SnippetWithTags) bool { return c.CompareString(b.Title, a.Title) < 0 }
	case SortLanguage:
		less = func(a, b model.SnippetWithTags) bool { return c.CompareString(a.Language, b.Language) < 0 }
	default: // SortNewest
		less = func(a, b model.SnippetWithTags) bool { return b.CreatedAt.Before(a.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Summary holds aggregate statistics over a snippet list.
//
// TopLanguage is "" (with count 0) for an empty list — a defined sentinel,
// not an error. FavoritePercent is rounded to the nearest integer and 0
// for an empty list.
type Summary struct {
	Total            int            `json:"total"`
	Favorites        int            `json:"favorites"`
	FavoritePercent  int            `json:"favoritePercent"`
	Languages        map[string]int `json:"languages"`
	TopLanguage      string         `json:"topLanguage"`
	TopLanguageCount int            `json:"topLanguageCount"`
}

// Stats computes Summary over the full list. Ties for the top language are
// broken by first appearance in list order: only a strictly higher count
// displaces the current leader.
func Stats(list []model.SnippetWithTags) Summary {
	s := Summary{
		Total:     len(list),
		Languages: map[string]int{},
	}

	for _, sn := range list {
		if sn.Favorite {
			s.Favorites++
		}
		s.Languages[sn.Language]++
	}

	for _, sn := range list {
		if count := s.Languages[sn.Language]; count > s.TopLanguageCount {
			s.TopLanguage = sn.Language
			s.TopLanguageCount = count
		}
	}

	if s.Total > 0 {
		s.FavoritePercent = int(math.Round(float64(s.Favorites) / float64(s.Total) * 100))
	}
	return s
}

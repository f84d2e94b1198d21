package search

import (
	"github.com/nikbrunner/li/internal/model"
	"github.com/sahilm/fuzzy"
)

// tagSource implements fuzzy.Source over tag counts.
type tagSource []model.TagCount

func (ts tagSource) String(i int) string {
	return ts[i].Tag
}

func (ts tagSource) Len() int {
	return len(ts)
}

// FuzzyFilterTags returns the tags matching pattern, best match first.
// An empty pattern returns tags unchanged.
func FuzzyFilterTags(tags []model.TagCount, pattern string) []model.TagCount {
	if pattern == "" {
		return tags
	}

	matches := fuzzy.FindFrom(pattern, tagSource(tags))

	results := make([]model.TagCount, len(matches))
	for i, m := range matches {
		results[i] = tags[m.Index]
	}
	return results
}

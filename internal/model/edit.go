package model

import "strings"

// Edit describes an in-place modification of a Record.
// Nil fields are left untouched.
type Edit struct {
	Title       *string
	Description *string
	URL         *string
	Tags        []string // nil = keep current tags
	AppendTags  bool     // merge Tags into the current set instead of replacing it
}

// Apply modifies r according to e. The record is left unchanged when the
// edit is rejected.
func (r *Record) Apply(e Edit) error {
	next := *r

	if e.Title != nil {
		next.Title = NormalizeTitle(*e.Title)
	}
	if e.Description != nil {
		desc := *e.Description
		next.Description = &desc
	}
	if e.URL != nil {
		canonical, err := ParseURL(*e.URL)
		if err != nil {
			return err
		}
		next.URL = canonical
	}
	if e.Tags != nil {
		if e.AppendTags {
			next.Tags = MergeTags(r.Tags, e.Tags)
		} else {
			next.Tags = DedupeTags(e.Tags)
		}
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*r = next
	return nil
}

// DedupeTags returns tags without duplicates, keeping first occurrences in order.
func DedupeTags(tags []string) []string {
	return MergeTags(nil, tags)
}

// MergeTags returns the union of existing and added. Existing tags keep their
// position; new tags follow in the order given.
func MergeTags(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, tag := range list {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// CleanTags trims user supplied tags, drops empty ones and removes duplicates.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return DedupeTags(cleaned)
}

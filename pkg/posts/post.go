// Package posts implements the blog post query pipeline: validating query
// parameters, fetching one batch per tag, merging batches without duplicate
// ids and ordering the result by a numeric field.
package posts

import "strings"

// Post is a blog post as returned by the upstream source.
type Post struct {
	ID         int      `json:"id"`
	Author     string   `json:"author"`
	AuthorID   int      `json:"authorId"`
	Likes      int      `json:"likes"`
	Popularity float64  `json:"popularity"`
	Reads      int      `json:"reads"`
	Tags       []string `json:"tags"`
}

// HasTag reports whether the post is labelled with tag, ignoring case.
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the post carries at least one of tags.
func (p Post) HasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}

// Value returns the numeric value of a sortable field.
func (p Post) Value(field SortField) float64 {
	switch field {
	case SortByReads:
		return float64(p.Reads)
	case SortByLikes:
		return float64(p.Likes)
	case SortByPopularity:
		return p.Popularity
	default:
		return float64(p.ID)
	}
}

// Response is the JSON envelope shared by the upstream source and /api/posts.
type Response struct {
	Posts []Post `json:"posts"`
}

package posts

import (
	"net/url"
	"strings"
)

// SortField is a post field the result can be ordered by.
type SortField string

const (
	SortByID         SortField = "id"
	SortByReads      SortField = "reads"
	SortByLikes      SortField = "likes"
	SortByPopularity SortField = "popularity"
)

// Valid reports whether f is one of the sortable fields.
func (f SortField) Valid() bool {
	switch f {
	case SortByID, SortByReads, SortByLikes, SortByPopularity:
		return true
	}
	return false
}

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Query parameter names accepted by /api/posts.
const (
	ParamTags      = "tags"
	ParamSortBy    = "sortBy"
	ParamDirection = "direction"
)

// ValidationError is a client error with the message returned to the caller.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Validation errors, checked in this order.
var (
	ErrTagsRequired     = &ValidationError{Message: "Tags parameter is required."}
	ErrInvalidSortBy    = &ValidationError{Message: "sortBy parameter is invalid."}
	ErrInvalidDirection = &ValidationError{Message: "direction parameter is invalid."}
)

// Query is a validated posts request.
type Query struct {
	Tags      []string
	SortBy    SortField
	Direction Direction
}

// ParseQuery validates raw query parameters and applies defaults
// (sortBy=id, direction=asc). The first violated rule is returned.
func ParseQuery(values url.Values) (Query, error) {
	tags := splitTags(values.Get(ParamTags))
	if len(tags) == 0 {
		return Query{}, ErrTagsRequired
	}

	sortBy := SortField(values.Get(ParamSortBy))
	if sortBy == "" {
		sortBy = SortByID
	}
	if !sortBy.Valid() {
		return Query{}, ErrInvalidSortBy
	}

	direction := Direction(values.Get(ParamDirection))
	if direction == "" {
		direction = Ascending
	}
	if !direction.Valid() {
		return Query{}, ErrInvalidDirection
	}

	return Query{
		Tags:      tags,
		SortBy:    sortBy,
		Direction: direction,
	}, nil
}

// splitTags splits a comma-separated list in order, dropping blank and
// repeated segments.
func splitTags(raw string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

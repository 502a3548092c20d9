package model

import (
	"math"
	"time"
)

type Movie struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Genre         string    `json:"genre"`
	ReleaseYear   int       `json:"releaseYear"`
	AverageRating float64   `json:"averageRating"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MovieInput carries the writable movie fields.
type MovieInput struct {
	Title       string
	Genre       string
	ReleaseYear int
}

// MovieDetail is a movie with createdBy resolved to the creator's summary.
type MovieDetail struct {
	Movie
	CreatedBy *IdentitySummary `json:"createdBy"`
}

type MovieFilter struct {
	Title       string
	Genre       string
	ReleaseYear int
	Page        int
	Limit       int
}

// Skip is the offset of the requested page. It saturates at math.MaxInt
// instead of wrapping, so an absurd page yields an empty result.
func (f MovieFilter) Skip() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

type MoviePage struct {
	Movies []MovieDetail `json:"movies"`
	Items  int           `json:"items"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Pages  int64         `json:"pages"`
}

package model

import "time"

const (
	MinScore = 1
	MaxScore = 5
)

type Rating struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Movie     string    `json:"movie"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingDetail is a rating with user resolved to the author's summary.
type RatingDetail struct {
	Rating
	User *IdentitySummary `json:"user"`
}

// AverageScore is the arithmetic mean of the scores, or 0 for none.
func AverageScore(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	return float64(sum) / float64(len(ratings))
}

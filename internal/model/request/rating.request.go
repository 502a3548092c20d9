package request

type CreateRating struct {
	MovieID string `json:"movieId" validate:"required"`
	Score   int    `json:"score"   validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type UpdateRating struct {
	Score   int    `json:"score"   validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

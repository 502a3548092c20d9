package request

type Movie struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Genre       string `json:"genre"       validate:"required,max=100"`
	ReleaseYear int    `json:"releaseYear" validate:"required,gte=1888"`
}

type ID struct {
	ID string `uri:"id" validate:"required"`
}

type MovieSearch struct {
	Title       string `form:"title"                validate:"max=200"`
	Genre       string `form:"genre"                validate:"max=100"`
	ReleaseYear int    `form:"releaseYear"          validate:"omitempty,gte=1888"`
	Page        int    `form:"page,default=1"       validate:"gte=1,lte=1000000"`
	Limit       int    `form:"limit,default=10"     validate:"gte=1,lte=100"`
}

type TopRated struct {
	Limit int `form:"limit,default=10" validate:"gte=1,lte=100"`
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/model/request"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/internal/validation"
	"github.com/duccv/movie-rating-api/util"
)

type MovieHandler struct {
	movies *service.MovieService
}

func NewMovieHandler(movies *service.MovieService) *MovieHandler {
	return &MovieHandler{movies: movies}
}

func movieInput(body request.Movie) model.MovieInput {
	return model.MovieInput{Title: body.Title, Genre: body.Genre, ReleaseYear: body.ReleaseYear}
}

// Create godoc
//
//	@Summary	Create movie
//	@Tags		Movies
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		request.Movie	true	"Movie"
//	@Success	201		{object}	response.ResponseData{data=model.Movie}
//	@Failure	400		{object}	response.ResponseData
//	@Failure	401		{object}	response.ResponseData
//	@Failure	403		{object}	response.ResponseData
//	@Router		/movies [post]
func (h *MovieHandler) Create(c *gin.Context) {
	creator, ok := identity(c)
	if !ok {
		return
	}
	movie, err := h.movies.Create(c.Request.Context(), creator, movieInput(validation.Body[request.Movie](c)))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "New movie created!", movie)
}

// Search godoc
//
//	@Summary	Search movies
//	@Tags		Movies
//	@Produce	json
//	@Param		title		query		string	false	"Title contains (case-insensitive)"
//	@Param		genre		query		string	false	"Genre contains (case-insensitive)"
//	@Param		releaseYear	query		int		false	"Release year"
//	@Param		page		query		int		false	"Page"				default(1)
//	@Param		limit		query		int		false	"Items per page"	default(10)
//	@Success	200			{object}	response.ResponseData{data=model.MoviePage}
//	@Failure	400			{object}	response.ResponseData
//	@Router		/movies [get]
func (h *MovieHandler) Search(c *gin.Context) {
	q := validation.Query[request.MovieSearch](c)
	page, err := h.movies.Search(c.Request.Context(), model.MovieFilter{
		Title:       q.Title,
		Genre:       q.Genre,
		ReleaseYear: q.ReleaseYear,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Movies found!", page)
}

// TopRated godoc
//
//	@Summary	Top rated movies
//	@Tags		Movies
//	@Produce	json
//	@Param		limit	query		int	false	"Number of movies"	default(10)
//	@Success	200		{object}	response.ResponseData{data=[]model.MovieDetail}
//	@Router		/movies/top/rating-score [get]
func (h *MovieHandler) TopRated(c *gin.Context) {
	movies, err := h.movies.TopRated(c.Request.Context(), validation.Query[request.TopRated](c).Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Top rated movies found!", movies)
}

// Read godoc
//
//	@Summary	Get movie
//	@Tags		Movies
//	@Produce	json
//	@Param		id				path		string	true	"Movie id"
//	@Param		If-None-Match	header		string	false	"ETag of a cached copy"
//	@Success	200				{object}	response.ResponseData{data=model.MovieDetail}
//	@Success	304
//	@Failure	404				{object}	response.ResponseData
//	@Router		/movies/{id} [get]
func (h *MovieHandler) Read(c *gin.Context) {
	movie, err := h.movies.Read(c.Request.Context(), validation.Params[request.ID](c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	etag := util.GenerateETag(movie)
	c.Header("ETag", etag)
	if util.MatchesETag(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	respond(c, http.StatusOK, "Movie found!", movie)
}

// Ratings godoc
//
//	@Summary	List ratings of a movie
//	@Tags		Movies
//	@Produce	json
//	@Param		id	path		string	true	"Movie id"
//	@Success	200	{object}	response.ResponseData{data=[]model.RatingDetail}
//	@Failure	404	{object}	response.ResponseData
//	@Router		/movies/{id}/ratings [get]
func (h *MovieHandler) Ratings(c *gin.Context) {
	ratings, err := h.movies.Ratings(c.Request.Context(), validation.Params[request.ID](c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Ratings found!", ratings)
}

// Update godoc
//
//	@Summary	Update movie
//	@Tags		Movies
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string			true	"Movie id"
//	@Param		body	body		request.Movie	true	"Movie"
//	@Success	200		{object}	response.ResponseData{data=model.Movie}
//	@Failure	400		{object}	response.ResponseData
//	@Failure	403		{object}	response.ResponseData
//	@Failure	404		{object}	response.ResponseData
//	@Router		/movies/{id} [put]
func (h *MovieHandler) Update(c *gin.Context) {
	id := validation.Params[request.ID](c).ID
	movie, err := h.movies.Update(c.Request.Context(), id, movieInput(validation.Body[request.Movie](c)))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Movie updated!", movie)
}

// Delete godoc
//
//	@Summary		Delete movie
//	@Description	Deletes the movie and all of its ratings
//	@Tags			Movies
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Movie id"
//	@Success		200	{object}	response.ResponseData
//	@Failure		403	{object}	response.ResponseData
//	@Failure		404	{object}	response.ResponseData
//	@Router			/movies/{id} [delete]
func (h *MovieHandler) Delete(c *gin.Context) {
	if err := h.movies.Delete(c.Request.Context(), validation.Params[request.ID](c).ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Movie deleted!", nil)
}

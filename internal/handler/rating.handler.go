package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duccv/movie-rating-api/internal/model/request"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/internal/validation"
)

type RatingHandler struct {
	ratings *service.RatingService
}

func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// Create godoc
//
//	@Summary	Rate a movie
//	@Tags		Ratings
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		request.CreateRating	true	"Rating"
//	@Success	201		{object}	response.ResponseData{data=model.Rating}
//	@Failure	400		{object}	response.ResponseData
//	@Failure	401		{object}	response.ResponseData
//	@Failure	404		{object}	response.ResponseData
//	@Router		/ratings [post]
func (h *RatingHandler) Create(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}
	body := validation.Body[request.CreateRating](c)
	rating, err := h.ratings.Create(c.Request.Context(), author, body.MovieID, body.Score, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Rating created!", rating)
}

// Read godoc
//
//	@Summary	Get rating
//	@Tags		Ratings
//	@Produce	json
//	@Param		id	path		string	true	"Rating id"
//	@Success	200	{object}	response.ResponseData{data=model.RatingDetail}
//	@Failure	404	{object}	response.ResponseData
//	@Router		/ratings/{id} [get]
func (h *RatingHandler) Read(c *gin.Context) {
	rating, err := h.ratings.Read(c.Request.Context(), validation.Params[request.ID](c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rating found!", rating)
}

// Update godoc
//
//	@Summary	Update own rating
//	@Tags		Ratings
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string					true	"Rating id"
//	@Param		body	body		request.UpdateRating	true	"Rating"
//	@Success	200		{object}	response.ResponseData{data=model.Rating}
//	@Failure	403		{object}	response.ResponseData
//	@Failure	404		{object}	response.ResponseData
//	@Router		/ratings/{id} [put]
func (h *RatingHandler) Update(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	body := validation.Body[request.UpdateRating](c)
	rating, err := h.ratings.Update(c.Request.Context(), actor, validation.Params[request.ID](c).ID, body.Score, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rating updated!", rating)
}

// Delete godoc
//
//	@Summary	Delete own rating
//	@Tags		Ratings
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Rating id"
//	@Success	200	{object}	response.ResponseData
//	@Failure	403	{object}	response.ResponseData
//	@Failure	404	{object}	response.ResponseData
//	@Router		/ratings/{id} [delete]
func (h *RatingHandler) Delete(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	if err := h.ratings.Delete(c.Request.Context(), actor, validation.Params[request.ID](c).ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rating deleted!", nil)
}

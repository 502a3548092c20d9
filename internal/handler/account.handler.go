package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duccv/movie-rating-api/internal/model/request"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/internal/validation"
)

type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register godoc
//
//	@Summary		Register
//	@Description	Creates a user account and returns an access token
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			body	body		request.Register	true	"Account"
//	@Success		200		{object}	response.ResponseData{data=service.Session}
//	@Failure		400		{object}	response.ResponseData
//	@Router			/account/register [post]
func (h *AccountHandler) Register(c *gin.Context) {
	body := validation.Body[request.Register](c)
	session, err := h.accounts.Register(c.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User created successfully", session)
}

// Login godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for an access token
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			body	body		request.Login	true	"Credentials"
//	@Success		200		{object}	response.ResponseData{data=service.Session}
//	@Failure		400		{object}	response.ResponseData
//	@Router			/account/login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	body := validation.Body[request.Login](c)
	session, err := h.accounts.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successfully", session)
}

// Me godoc
//
//	@Summary	Current account
//	@Tags		Account
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.ResponseData{data=model.Identity}
//	@Failure	401	{object}	response.ResponseData
//	@Router		/account/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	user, ok := identity(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "Profile found!", gin.H{"user": user})
}

// Protected godoc
//
//	@Summary	Protected probe
//	@Tags		Account
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.ResponseData
//	@Failure	401	{object}	response.ResponseData
//	@Router		/protected [get]
func (h *AccountHandler) Protected(c *gin.Context) {
	respond(c, http.StatusOK, "You are authorized to see this message.", nil)
}

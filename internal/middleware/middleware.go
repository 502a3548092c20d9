package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/model/response"
)

// CurrentIdentity returns the identity stored by the authenticate stage.
func CurrentIdentity(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(constant.IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*model.Identity)
	return identity, ok && identity != nil
}

func abortWith(c *gin.Context, res response.ResponseData) {
	c.AbortWithStatusJSON(res.Status, res)
}

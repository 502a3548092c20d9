package router

import (
	"github.com/gin-gonic/gin"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/handler"
	"github.com/duccv/movie-rating-api/internal/middleware"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/model/request"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/internal/validation"
)

type Dependencies struct {
	Authenticator middleware.Authenticator
	Accounts      *service.AccountService
	Movies        *service.MovieService
	Ratings       *service.RatingService
	Health        handler.HealthChecker
	RateLimit     config.RateLimitConfig
}

// route lists the stages of one endpoint. They always run in the order
// validate, authenticate, authorize, handle; nil stages are skipped.
type route struct {
	validate     gin.HandlerFunc
	authenticate bool
	authorize    gin.HandlerFunc
	handle       gin.HandlerFunc
}

func (rt route) stages(authn gin.HandlerFunc) []gin.HandlerFunc {
	stages := make([]gin.HandlerFunc, 0, 4)
	if rt.validate != nil {
		stages = append(stages, rt.validate)
	}
	if rt.authenticate {
		stages = append(stages, authn)
	}
	if rt.authorize != nil {
		stages = append(stages, rt.authorize)
	}
	return append(stages, rt.handle)
}

// Register mounts /health on engine and the API under prefix.
func Register(engine *gin.Engine, prefix string, deps Dependencies) {
	authn := middleware.Authenticate(deps.Authenticator)
	admin := middleware.RequireRole(model.RoleAdmin)

	health := handler.NewHealthHandler(deps.Health)
	accounts := handler.NewAccountHandler(deps.Accounts)
	movies := handler.NewMovieHandler(deps.Movies)
	ratings := handler.NewRatingHandler(deps.Ratings)

	engine.GET("/health", health.Health)

	api := engine.Group(prefix)
	mount := func(g gin.IRoutes, method, path string, rt route) {
		g.Handle(method, path, rt.stages(authn)...)
	}

	account := api.Group("/account", middleware.RateLimit(deps.RateLimit))
	mount(account, "POST", "/register", route{
		validate: validation.Validate[request.Register, any, any](),
		handle:   accounts.Register,
	})
	mount(account, "POST", "/login", route{
		validate: validation.Validate[request.Login, any, any](),
		handle:   accounts.Login,
	})
	mount(account, "GET", "/me", route{authenticate: true, handle: accounts.Me})
	mount(api, "GET", "/protected", route{authenticate: true, handle: accounts.Protected})

	mount(api, "POST", "/movies", route{
		validate:     validation.Validate[request.Movie, any, any](),
		authenticate: true,
		authorize:    admin,
		handle:       movies.Create,
	})
	mount(api, "GET", "/movies", route{
		validate: validation.Validate[any, any, request.MovieSearch](),
		handle:   movies.Search,
	})
	mount(api, "GET", "/movies/top/rating-score", route{
		validate: validation.Validate[any, any, request.TopRated](),
		handle:   movies.TopRated,
	})
	mount(api, "GET", "/movies/:id", route{
		validate: validation.Validate[any, request.ID, any](),
		handle:   movies.Read,
	})
	mount(api, "GET", "/movies/:id/ratings", route{
		validate: validation.Validate[any, request.ID, any](),
		handle:   movies.Ratings,
	})
	mount(api, "PUT", "/movies/:id", route{
		validate:     validation.Validate[request.Movie, request.ID, any](),
		authenticate: true,
		authorize:    admin,
		handle:       movies.Update,
	})
	mount(api, "DELETE", "/movies/:id", route{
		validate:     validation.Validate[any, request.ID, any](),
		authenticate: true,
		authorize:    admin,
		handle:       movies.Delete,
	})

	mount(api, "POST", "/ratings", route{
		validate:     validation.Validate[request.CreateRating, any, any](),
		authenticate: true,
		handle:       ratings.Create,
	})
	mount(api, "GET", "/ratings/:id", route{
		validate: validation.Validate[any, request.ID, any](),
		handle:   ratings.Read,
	})
	mount(api, "PUT", "/ratings/:id", route{
		validate:     validation.Validate[request.UpdateRating, request.ID, any](),
		authenticate: true,
		handle:       ratings.Update,
	})
	mount(api, "DELETE", "/ratings/:id", route{
		validate:     validation.Validate[any, request.ID, any](),
		authenticate: true,
		handle:       ratings.Delete,
	})
}

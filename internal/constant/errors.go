package constant

import (
	"net/http"

	"github.com/duccv/movie-rating-api/internal/model/response"
)

var INVALID_REQUEST = response.Failure(http.StatusBadRequest, "Invalid request payload")

var UNAUTHORIZED = response.Failure(http.StatusUnauthorized, "Unauthorized")

var INVALID_TOKEN = response.Failure(http.StatusUnauthorized, "Invalid token")

var TOKEN_EXPIRED = response.Failure(http.StatusUnauthorized, "Token expired")

var FORBIDDEN = response.Failure(http.StatusForbidden, "Forbidden")

var TOO_MANY_REQUESTS = response.Failure(http.StatusTooManyRequests, "Too many requests")

var REQUEST_TIMEOUT = response.Failure(http.StatusServiceUnavailable, "Request timed out")

var INTERNAL_SERVER_ERROR = response.Failure(http.StatusInternalServerError, "Internal server error")

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/model/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc) (int, response.ResponseData) {
	t.Helper()
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body response.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestMe_WithoutIdentity(t *testing.T) {
	code, body := serve(t, NewAccountHandler(nil).Me)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Success)
	assert.Equal(t, "Unauthorized", body.Message)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"unauthenticated", apperror.Unauthenticated("Unauthorized"), http.StatusUnauthorized, "Unauthorized"},
		{"not found", apperror.NotFound("Movie not found"), http.StatusNotFound, "Movie not found"},
		{"cause is hidden", errors.New("dial tcp: refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, func(c *gin.Context) { respondError(c, tt.err) })
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

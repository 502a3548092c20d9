package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duccv/movie-rating-api/internal/model/request"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func serve(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestValidate_Body(t *testing.T) {
	r := gin.New()
	r.POST("/movies", Validate[request.Movie, any, any](), func(c *gin.Context) {
		c.JSON(http.StatusOK, Body[request.Movie](c))
	})

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing title", `{"genre":"Drama","releaseYear":1999}`, 400, "title is required"},
		{"year too early", `{"title":"A","genre":"Drama","releaseYear":1700}`, 400, "releaseYear must be greater than or equal to 1888"},
		{"wrong type", `{"title":"A","genre":"Drama","releaseYear":"soon"}`, 400, "releaseYear must be a number"},
		{"malformed", `{"title":`, 400, "Invalid request payload"},
		{"valid", `{"title":"A","genre":"Drama","releaseYear":1999}`, 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, r, http.MethodPost, "/movies", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.False(t, env.Success)
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestValidate_RegisterMessages(t *testing.T) {
	r := gin.New()
	r.POST("/register", Validate[request.Register, any, any](), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	_, env := serve(t, r, http.MethodPost, "/register", `{"name":"a","email":"nope","password":"secret1"}`)
	assert.Equal(t, "email must be a valid email", env.Message)

	_, env = serve(t, r, http.MethodPost, "/register", `{"name":"a","email":"a@b.co","password":"123"}`)
	assert.Equal(t, "password must be at least 6 characters", env.Message)
}

func TestValidate_ParamsAndQuery(t *testing.T) {
	r := gin.New()
	r.GET("/movies/:id", Validate[any, request.ID, any](), func(c *gin.Context) {
		c.String(http.StatusOK, Params[request.ID](c).ID)
	})
	r.GET("/movies", Validate[any, any, request.MovieSearch](), func(c *gin.Context) {
		c.JSON(http.StatusOK, Query[request.MovieSearch](c))
	})

	w, _ := serve(t, r, http.MethodGet, "/movies/42", "")
	assert.Equal(t, "42", w.Body.String())

	w, _ = serve(t, r, http.MethodGet, "/movies?genre=drama", "")
	require.Equal(t, http.StatusOK, w.Code)
	var q struct {
		Page  int `json:"Page"`
		Limit int `json:"Limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)

	w, env := serve(t, r, http.MethodGet, "/movies?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit must be less than or equal to 100", env.Message)
}

func TestGettersWithoutValidation(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, request.Movie{}, Body[request.Movie](c))
}

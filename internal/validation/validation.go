package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/model/response"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
}

// fieldName reports fields by the name the client sent them under.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func isEmptyInterface[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t == reflect.TypeOf((*any)(nil)).Elem()
}

// Validate binds and validates the JSON body B, the URI params P and the query Q.
// Pass any to skip a part. Validated values are stored on the context and read
// back with Body, Params and Query.
func Validate[B any, P any, Q any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isEmptyInterface[B]() {
			var body B
			if err := c.ShouldBindJSON(&body); err != nil {
				reject(c, err)
				return
			}
			if err := validate.Struct(body); err != nil {
				reject(c, err)
				return
			}
			c.Set(constant.ValidatedBodyKey, body)
		}

		if !isEmptyInterface[P]() {
			var params P
			if err := c.ShouldBindUri(&params); err != nil {
				reject(c, err)
				return
			}
			if err := validate.Struct(params); err != nil {
				reject(c, err)
				return
			}
			c.Set(constant.ValidatedParamsKey, params)
		}

		if !isEmptyInterface[Q]() {
			var query Q
			if err := c.ShouldBindQuery(&query); err != nil {
				reject(c, err)
				return
			}
			if err := validate.Struct(query); err != nil {
				reject(c, err)
				return
			}
			c.Set(constant.ValidatedQueryKey, query)
		}

		c.Next()
	}
}

func reject(c *gin.Context, err error) {
	msg := Message(err)
	logger.FromContext(c.Request.Context()).Debug("Request rejected by validation",
		zap.String("path", c.FullPath()),
		zap.String("reason", msg),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, response.Failure(http.StatusBadRequest, msg))
}

// Message turns the first violation in err into a client-facing sentence.
func Message(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return describe(fieldErrs[0])
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, kindName(typeErr.Type.Kind()))
	}
	return constant.INVALID_REQUEST.Message
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return k.String()
	}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min", "gte":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func Body[T any](c *gin.Context) T {
	return get[T](c, constant.ValidatedBodyKey)
}

func Params[T any](c *gin.Context) T {
	return get[T](c, constant.ValidatedParamsKey)
}

func Query[T any](c *gin.Context) T {
	return get[T](c, constant.ValidatedQueryKey)
}

func get[T any](c *gin.Context, key string) T {
	v, _ := c.Get(key)
	typed, _ := v.(T)
	return typed
}

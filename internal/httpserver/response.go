package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
)

// envelope is the body of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   any    `json:"error"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string, detail any) {
	c.AbortWithStatusJSON(status, envelope{Message: message, Error: detail})
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		ve   *domain.ValidationError
		bind *bindError
	)
	switch {
	case errors.As(err, &bind):
		respondError(c, http.StatusBadRequest, bind.message, bind.fields)
	case errors.As(err, &ve):
		var detail any = ve.Message
		if ve.Field != "" {
			detail = map[string]string{ve.Field: ve.Message}
		}
		respondError(c, http.StatusBadRequest, ve.Error(), detail)
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrAlreadyExists):
		respondError(c, http.StatusBadRequest, err.Error(), err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error(), err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, err.Error(), err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error(), err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "Server error", err.Error())
	}
}

// bindError is a malformed request body, with per-field messages when the
// body decoded but failed validation.
type bindError struct {
	message string
	fields  map[string]string
}

func (e *bindError) Error() string { return e.message }

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return &bindError{message: "Invalid request", fields: fields}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return &bindError{message: "Invalid request body", fields: map[string]string{typeErr.Field: "has the wrong type"}}
	case errors.As(err, &syntaxErr):
		return &bindError{message: "Invalid request body"}
	}
	return &bindError{message: "Invalid request body", fields: map[string]string{"body": err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
)

var registerTagNames sync.Once

// useJSONFieldNames makes binding errors name fields the way clients send them.
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

// bindJSON decodes the body into dst. Missing required fields become field errors; a body
// that is not JSON is a plain 400.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		v := &common.ValidationError{}
		for _, fe := range verrs {
			v.Add(fe.Field(), fe.Field()+" is "+fe.Tag())
		}
		respondError(c, v)
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	return false
}

func statusOf(err error) int {
	switch {
	case common.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicate), errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the one response shape every failure uses. Unexpected errors are
// logged with their cause and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	body := models.ErrorResponse{Error: err.Error()}

	var v *common.ValidationError
	switch {
	case errors.As(err, &v):
		body.Error = "validation failed"
		body.Fields = v.Fields
	case errors.Is(err, common.ErrInvalidCredentials):
		body.Error = common.ErrInvalidCredentials.Error()
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		logging.FromContext(c, logging.Nop()).ErrorContext(c.Request.Context(), "Request failed", logging.FieldError, err)
		body.Error = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

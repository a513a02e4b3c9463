package handler

import (
	"errors"
	"net/http"
	"reflect"

	"cajas/internal/apierror"
	"cajas/internal/cuadre"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps domain error types to HTTP status codes. Anything not in
// the reconciliation error taxonomy falls back to 400 with the plain message.
func writeError(c *gin.Context, err error) {
	var (
		validacion *cuadre.ErrorValidacion
		conflicto  *cuadre.ErrorConflicto
		estado     *cuadre.ErrorEstadoInvalido
		bloqueado  *cuadre.ErrorBloqueado
	)
	switch {
	case errors.As(err, &validacion):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(validacion.Error()))
	case errors.As(err, &conflicto):
		c.JSON(http.StatusConflict, apierror.New(conflicto.Error()))
	case errors.As(err, &estado):
		c.JSON(http.StatusConflict, apierror.New(estado.Error()))
	case errors.As(err, &bloqueado):
		c.JSON(http.StatusConflict, apierror.New(bloqueado.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

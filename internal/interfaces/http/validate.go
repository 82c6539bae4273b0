package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/inventrack/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores nombran el campo como aparece en el JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct aplica las etiquetas validate del DTO. Devuelve un *domain.FieldError
// con el primer campo inválido.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewFieldError(domain.ErrInvalidInput, fe.Field(), reason(fe))
	}
	return err
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "max":
		return "excede el máximo de " + fe.Param()
	case "min":
		return "es menor que el mínimo de " + fe.Param()
	}
	return "no cumple " + fe.Tag()
}

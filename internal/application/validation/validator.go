package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/domain"
)

// NewValidator construye un validator/v10 que reporta los campos con su nombre JSON
// y conoce la regla "website" (URL con o sin esquema).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if q := f.Tag.Get("query"); q != "" && f.Tag.Get("json") == "" {
			return q
		}
		return jsonName(f)
	})
	_ = v.RegisterValidation("website", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeURL(fl.Field().String())
		return ok
	})
	return v
}

// Issues convierte el error de validator en hallazgos con código y mensaje en español.
// Devuelve nil si err es nil o no es un error de validación.
func Issues(err error) []dto.ValidationIssue {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]dto.ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, issueFromFieldError(fe))
	}
	return out
}

func issueFromFieldError(fe validator.FieldError) dto.ValidationIssue {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	code, msg := describe(fe)
	return dto.ValidationIssue{Field: field, Code: code, Message: msg, Severity: dto.SeverityError}
}

func describe(fe validator.FieldError) (string, string) {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "REQUIRED", "Campo requerido"
	case "email":
		return "INVALID_EMAIL", "Email inválido"
	case "url", "website":
		return "INVALID_URL", "URL inválida"
	case "oneof":
		return "INVALID_OPTION", fmt.Sprintf("Valor no permitido; opciones: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "INVALID_DATE", "Fecha inválida; formato esperado AAAA-MM-DD"
	case "timezone":
		return "INVALID_TIMEZONE", "Zona horaria inválida"
	case "min", "gt", "gte":
		switch kind {
		case reflect.String:
			return "TOO_SHORT", fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
		case reflect.Slice, reflect.Map, reflect.Array:
			return "TOO_FEW", fmt.Sprintf("Debe tener al menos %s elementos", fe.Param())
		}
		if fe.Tag() == "gt" {
			return "TOO_SMALL", fmt.Sprintf("Debe ser mayor que %s", fe.Param())
		}
		return "TOO_SMALL", fmt.Sprintf("Debe ser mayor o igual a %s", fe.Param())
	case "max", "lt", "lte":
		switch kind {
		case reflect.String:
			return "TOO_LONG", fmt.Sprintf("Debe tener como máximo %s caracteres", fe.Param())
		case reflect.Slice, reflect.Map, reflect.Array:
			return "TOO_MANY", fmt.Sprintf("Debe tener como máximo %s elementos", fe.Param())
		}
		return "TOO_LARGE", fmt.Sprintf("Debe ser menor o igual a %s", fe.Param())
	case "uuid", "uuid4":
		return "INVALID_ID", "Identificador inválido"
	}
	return "INVALID_VALUE", "Valor inválido"
}

// ResultError error de validación que lleva el resultado completo para la respuesta 400.
type ResultError struct {
	Result *dto.ValidationResult
	Cause  error // domain.ErrInvalidInput o domain.ErrStrictValidation
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%v: %d errores", e.cause(), len(e.Result.Errors))
}

func (e *ResultError) Unwrap() error { return e.cause() }

func (e *ResultError) cause() error {
	if e.Cause == nil {
		return domain.ErrInvalidInput
	}
	return e.Cause
}

// RequestError error de validación de un DTO de entrada.
type RequestError struct {
	Issues []dto.ValidationIssue
}

func (e *RequestError) Error() string {
	if len(e.Issues) == 0 {
		return domain.ErrInvalidInput.Error()
	}
	return fmt.Sprintf("%v: %s %s", domain.ErrInvalidInput, e.Issues[0].Field, e.Issues[0].Message)
}

func (e *RequestError) Unwrap() error { return domain.ErrInvalidInput }

// Struct valida un DTO de entrada; devuelve *RequestError si no cumple.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	if issues := Issues(err); len(issues) > 0 {
		return &RequestError{Issues: issues}
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

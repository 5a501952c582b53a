package app

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/stolasapp/journal/internal/storage"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Title length is checked by storage after trimming.
type addForm struct {
	Title string `form:"title" validate:"required"`
	Text  string `form:"text"  validate:"required"`
}

type editForm struct {
	ID    int64  `form:"id"    validate:"required,gt=0"`
	Title string `form:"title" validate:"required"`
	Text  string `form:"text"  validate:"required"`
}

// bindForm binds the request body into form and validates it. Both failures
// are reported as 400s without exposing parser details.
func bindForm(c echo.Context, form any) error {
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data").SetInternal(err)
	}
	return c.Validate(form)
}

// formValidator satisfies [echo.Validator] using go-playground/validator. Field
// names in messages are taken from the form tags.
type formValidator struct {
	validate *validator.Validate
}

func newFormValidator() *formValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &formValidator{validate: validate}
}

// Validate satisfies [echo.Validator].
func (v *formValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		msgs = append(msgs, describe(fieldErr))
	}
	return echo.NewHTTPError(http.StatusBadRequest,
		fmt.Sprintf("%s: %s", storage.ErrInvalidInput, strings.Join(msgs, "; ")),
	).SetInternal(err)
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fieldErr.Field(), fieldErr.Param())
	default:
		return fieldErr.Field() + " is invalid"
	}
}

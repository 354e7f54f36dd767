package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/bilgisen/s13core/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return &Validator{validate: v}
}

// Validate validates the provided struct
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// Form parses the request body into dst and validates it. The returned
// messages read "problem: field", one per failing field.
func (v *Validator) Form(c *fiber.Ctx, dst interface{}) []string {
	if err := c.BodyParser(dst); err != nil {
		return []string{"Invalid form data: " + err.Error()}
	}
	return v.Messages(v.Validate(dst))
}

// Var checks a single submitted value against tag. The messages read
// like those of Form, naming the field as name.
func (v *Validator) Var(name string, value interface{}, tag string) []string {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error() + ": " + name}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, describe(fe)+": "+name)
	}
	return out
}

// Messages turns a validation error into user facing messages.
func (v *Validator) Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: %s", describe(fe), fe.Field()))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "number":
		return "Enter a whole number."
	case "datetime":
		return "Enter a valid date/time."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid value (" + fe.Tag() + ")."
	}
}

// ErrorHandler renders the error page for errors no handler dealt with.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default status code
	code := fiber.StatusInternalServerError

	// Check if it's a fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	event := logger.Get().Error()
	if code < fiber.StatusInternalServerError {
		event = logger.Get().Debug()
	}
	event.
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	c.Status(code)
	if rerr := c.Render("error", fiber.Map{"Code": code, "Message": http.StatusText(code)}); rerr != nil {
		return c.SendString(http.StatusText(code))
	}
	return nil
}

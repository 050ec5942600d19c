// Package validation checks the shape of incoming contact payloads before they reach a store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	pkgmodel "gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// Error is returned when a payload does not have the expected shape. Its message is meant to be
// shown to the caller.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf creates a validation error with a formatted message.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// ErrMissingFields is returned for an update that contains no known field at all.
var ErrMissingFields = &Error{Message: "missing fields"}

var validate = newValidator()

// newValidator creates a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Create validates the body of a create request and converts it into the fields of a new
// contact.
func Create(input pkgmodel.ContactInput) (model.Fields, error) {
	if err := check(input); err != nil {
		return model.Fields{}, err
	}
	fields := model.Fields{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}
	if input.Favorite != nil {
		fields.Favorite = *input.Favorite
	}
	return fields, nil
}

// Update validates the body of an update request. Any subset of name, email and phone may be
// given, but not none of them.
func Update(patch pkgmodel.ContactPatch) (model.Changes, error) {
	changes := model.Changes{Name: patch.Name, Email: patch.Email, Phone: patch.Phone}
	if changes.Empty() {
		return model.Changes{}, ErrMissingFields
	}
	if err := check(patch); err != nil {
		return model.Changes{}, err
	}
	return changes, nil
}

// Favorite validates the body of a favorite status request.
func Favorite(input pkgmodel.FavoriteInput) (model.Changes, error) {
	if err := check(input); err != nil {
		return model.Changes{}, err
	}
	return model.Changes{Favorite: input.Favorite}, nil
}

// check runs the struct tag rules and translates the first violations into a readable message.
func check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("validate payload: %w", err)
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, describe(fe))
	}
	return &Error{Message: strings.Join(messages, "; ")}
}

// describe renders a single rule violation.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must not be empty"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

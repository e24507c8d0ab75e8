// validate.go decodes request bodies and validates them
// with go-playground/validator. Failures become a 400 with one Dutch
// message per JSON field.

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MsgInvalidInput is the top-level message of every validation failure.
const MsgInvalidInput = "Ongeldige invoer"

// maxBodyBytes caps JSON request bodies; uploads use their own limit.
const maxBodyBytes = 1 << 20

var postcodeRe = regexp.MustCompile(`^[1-9][0-9]{3} ?[A-Za-z]{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Field names in error details follow the JSON tags the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("nl_postcode", func(fl validator.FieldLevel) bool {
		return postcodeRe.MatchString(fl.Field().String())
	})

	return v
}

// IsPostcode reports whether s looks like a Dutch postcode ("1234 AB").
func IsPostcode(s string) bool {
	return postcodeRe.MatchString(strings.TrimSpace(s))
}

// DecodeJSON reads the body into dst and validates it.
func DecodeJSON(r *http.Request, dst interface{}) *APIError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewAPIError(http.StatusBadRequest, "Lege aanvraag")
		}
		return &APIError{Status: http.StatusBadRequest, Message: "Ongeldige JSON", Cause: err}
	}
	return Validate(dst)
}

// Validate runs struct validation and returns field-level details.
func Validate(v interface{}) *APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &APIError{Status: http.StatusBadRequest, Message: MsgInvalidInput, Cause: err}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe)] = fieldMessage(fe)
	}
	return &APIError{Status: http.StatusBadRequest, Message: MsgInvalidInput, Details: details, Cause: err}
}

// fieldPath drops the Go type name from the namespace:
// "createInput.items[0].description" → "items[0].description".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is verplicht"
	case "email":
		return "moet een geldig e-mailadres zijn"
	case "url", "http_url":
		return "moet een geldige URL zijn"
	case "nl_postcode":
		return "moet een geldige postcode zijn (1234 AB)"
	case "uuid", "uuid4":
		return "moet een geldig ID zijn"
	case "oneof":
		return "moet een van de volgende zijn: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("moet minimaal %s tekens bevatten", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("moet minimaal %s onderdelen bevatten", fe.Param())
		}
		return "moet minimaal " + fe.Param() + " zijn"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("mag maximaal %s tekens bevatten", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("mag maximaal %s onderdelen bevatten", fe.Param())
		}
		return "mag maximaal " + fe.Param() + " zijn"
	case "gt":
		return "moet groter zijn dan " + fe.Param()
	case "gte":
		return "moet minimaal " + fe.Param() + " zijn"
	case "lte":
		return "mag maximaal " + fe.Param() + " zijn"
	case "numeric":
		return "mag alleen cijfers bevatten"
	case "len":
		return fmt.Sprintf("moet precies %s tekens lang zijn", fe.Param())
	}
	return "is ongeldig"
}

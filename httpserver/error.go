package httpserver

import (
	"errors"
	"fmt"

	"github.com/andyle182810/dogview/validator"
	"github.com/labstack/echo/v5"
)

// HTTPError builds an HTTP error whose message is err's text, with an
// optional detail appended, and keeps err as the wrapped cause.
func HTTPError(code int, err error, details ...string) error {
	message := err.Error()

	if len(details) > 0 {
		message = fmt.Sprintf("%s: %s", message, details[0])
	}

	return echo.NewHTTPError(code, message).Wrap(err)
}

// IsValidationError reports whether err came from the request validator.
func IsValidationError(err error) bool {
	var validationErrs validator.ValidationErrors

	return errors.As(err, &validationErrs)
}

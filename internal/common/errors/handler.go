package errors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the status code surfaced at the API boundary.
// Unauthenticated is distinguished from ownership failures and bad input;
// everything unclassified is a 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to surface to the caller. Internal
// errors collapse to a generic message; their details stay in server logs.
func PublicMessage(err error) string {
	var app *AppError
	if errors.As(err, &app) && app.Kind != KindInternal {
		return app.Message
	}
	return "Internal server error"
}

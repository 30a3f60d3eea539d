package views

import (
	"errors"

	"cafedesk/internal/transport"
	"cafedesk/internal/validate"
)

var ErrNotEnoughSeats = errors.New("views: not enough seats")

// FormError carries the text a form shows for a failed submission.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }
func (e *FormError) Unwrap() error { return e.Err }

// Message picks the user-facing text for err, falling back to generic.
func Message(err error, generic string) string {
	if err == nil {
		return ""
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Message
	}
	switch {
	case validate.IsValidation(err):
		return "Please correct the highlighted fields."
	case errors.Is(err, ErrBusy):
		return "Still working on the previous request."
	case errors.Is(err, transport.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	}
	return generic
}

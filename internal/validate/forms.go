package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"cafedesk/internal/domain"
)

// MinMessageLen is the shortest contact message accepted.
const MinMessageLen = 10

// FieldError is one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

type form struct {
	errs *multierror.Error
}

func (f *form) fail(field, msg string) {
	f.errs = multierror.Append(f.errs, &FieldError{Field: field, Message: msg})
}

func (f *form) result() error {
	if f.errs == nil {
		return nil
	}
	f.errs.ErrorFormat = func(es []error) string {
		parts := make([]string, 0, len(es))
		for _, e := range es {
			parts = append(parts, e.Error())
		}
		return fmt.Sprintf("invalid form: %s", strings.Join(parts, "; "))
	}
	return f.errs.ErrorOrNil()
}

// Fields flattens a validation error into field -> message, first message wins.
// Errors that carry no field information yield an empty map.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var me *multierror.Error
	if errors.As(err, &me) {
		for _, e := range me.Errors {
			var fe *FieldError
			if errors.As(e, &fe) {
				if _, seen := out[fe.Field]; !seen {
					out[fe.Field] = fe.Message
				}
			}
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		out[fe.Field] = fe.Message
	}
	return out
}

// IsValidation reports whether err came from one of the form validators.
func IsValidation(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe) || len(Fields(err)) > 0
}

func Contact(in domain.ContactInput) error {
	var f form
	if strings.TrimSpace(in.Name) == "" {
		f.fail("name", "Name is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		f.fail("email", "Email is required")
	} else if _, ok := Email(in.Email); !ok {
		f.fail("email", "Invalid email address")
	}
	msg := strings.TrimSpace(in.Message)
	switch {
	case msg == "":
		f.fail("message", "Message is required")
	case len([]rune(msg)) < MinMessageLen:
		f.fail("message", fmt.Sprintf("Message must be at least %d characters", MinMessageLen))
	}
	return f.result()
}

// Reservation checks a booking against today's calendar day.
func Reservation(in domain.ReservationInput, today domain.Date) error {
	var f form
	if _, ok := Name(in.Name); !ok {
		f.fail("name", "Name is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		f.fail("phone", "Phone is required")
	} else if _, ok := Phone(in.Phone); !ok {
		f.fail("phone", "Invalid phone number")
	}
	if strings.TrimSpace(in.Email) == "" {
		f.fail("email", "Email is required")
	} else if _, ok := Email(in.Email); !ok {
		f.fail("email", "Invalid email address")
	}
	switch {
	case in.Date.IsZero():
		f.fail("date", "Date is required")
	case in.Date.Before(today):
		f.fail("date", "Date cannot be in the past")
	}
	switch {
	case in.TimeSlot == "":
		f.fail("timeSlot", "Time slot is required")
	case !in.TimeSlot.Valid():
		f.fail("timeSlot", "Unknown time slot")
	}
	if in.NumberOfGuests < 1 {
		f.fail("numberOfGuests", "At least 1 guest")
	}
	return f.result()
}

func Login(c domain.Credentials) error {
	var f form
	if strings.TrimSpace(c.Username) == "" {
		f.fail("username", "Username is required")
	}
	if c.Password == "" {
		f.fail("password", "Password is required")
	}
	return f.result()
}

func MenuItem(in domain.MenuItemInput) error {
	var f form
	if _, ok := Name(in.Name); !ok {
		f.fail("name", "Name is required")
	}
	if in.Price < 0 {
		f.fail("price", "Price cannot be negative")
	}
	if !in.Category.Valid() {
		f.fail("category", "Choose a category")
	}
	return f.result()
}

// MenuPatch checks only the fields an update sets.
func MenuPatch(p domain.MenuItemPatch) error {
	var f form
	if p.Name != nil {
		if _, ok := Name(*p.Name); !ok {
			f.fail("name", "Name is required")
		}
	}
	if p.Price != nil && *p.Price < 0 {
		f.fail("price", "Price cannot be negative")
	}
	if p.Category != nil && !p.Category.Valid() {
		f.fail("category", "Choose a category")
	}
	return f.result()
}

func Reply(body string) error {
	if strings.TrimSpace(body) == "" {
		return &FieldError{Field: "replyMessage", Message: "Reply message is required"}
	}
	return nil
}

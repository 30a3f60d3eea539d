package validate

import (
	"strings"
	"testing"

	"cafedesk/internal/domain"
)

func TestContactShortMessage(t *testing.T) {
	err := Contact(domain.ContactInput{Name: "Ana", Email: "ana@example.com", Message: "too short"})
	if err == nil {
		t.Fatal("expected rejection for a 9 character message")
	}
	f := Fields(err)
	if len(f) != 1 || !strings.Contains(f["message"], "10") {
		t.Fatalf("fields %v", f)
	}
	if !IsValidation(err) {
		t.Fatal("should be a validation error")
	}
}

func TestContactCollectsEveryField(t *testing.T) {
	err := Contact(domain.ContactInput{Email: "not-an-email"})
	f := Fields(err)
	for _, k := range []string{"name", "email", "message"} {
		if f[k] == "" {
			t.Fatalf("missing %s in %v", k, f)
		}
	}
	if f["email"] != "Invalid email address" {
		t.Fatalf("email message %q", f["email"])
	}
	if !strings.HasPrefix(err.Error(), "invalid form: ") {
		t.Fatalf("error text %q", err.Error())
	}
}

func TestContactAccepts(t *testing.T) {
	if err := Contact(domain.ContactInput{Name: "Ana", Email: "a@b", Message: "Lovely flat white!"}); err != nil {
		t.Fatal(err)
	}
}

func TestReservation(t *testing.T) {
	today, _ := domain.ParseDate("2026-03-10")
	ok := domain.ReservationInput{
		Name: "Ben", Phone: "+1 555 0100", Email: "ben@example.com",
		NumberOfGuests: 2, Date: today, TimeSlot: "18:00-19:00",
	}
	if err := Reservation(ok, today); err != nil {
		t.Fatal(err)
	}

	bad := ok
	bad.Date = today.AddDays(-1)
	bad.NumberOfGuests = 0
	bad.TimeSlot = "07:00-08:00"
	f := Fields(Reservation(bad, today))
	if f["date"] == "" || f["numberOfGuests"] == "" || f["timeSlot"] == "" {
		t.Fatalf("fields %v", f)
	}
	if len(f) != 3 {
		t.Fatalf("unexpected extra fields %v", f)
	}
}

func TestLoginAndReply(t *testing.T) {
	f := Fields(Login(domain.Credentials{Username: " "}))
	if f["username"] == "" || f["password"] == "" {
		t.Fatalf("fields %v", f)
	}
	if Reply("  ") == nil || Reply("Thanks!") != nil {
		t.Fatal("reply validation")
	}
	if Fields(Reply(""))["replyMessage"] == "" {
		t.Fatal("reply field missing")
	}
}

func TestMenuPatchOnlyChecksSetFields(t *testing.T) {
	if err := MenuPatch(domain.MenuItemPatch{}); err != nil {
		t.Fatal(err)
	}
	neg := -1.0
	if Fields(MenuPatch(domain.MenuItemPatch{Price: &neg}))["price"] == "" {
		t.Fatal("negative price accepted")
	}
	if Fields(MenuItem(domain.MenuItemInput{Name: "Latte", Category: "Tea"}))["category"] == "" {
		t.Fatal("unknown category accepted")
	}
}

func TestFieldParsers(t *testing.T) {
	if n, ok := Guests("3"); !ok || n != 3 {
		t.Fatal("guests")
	}
	if _, ok := Guests("0"); ok {
		t.Fatal("zero guests accepted")
	}
	if Page("-2") != 1 || Page("x") != 1 || Page("4") != 4 {
		t.Fatal("page")
	}
	if _, ok := Price("-0.5"); ok {
		t.Fatal("negative price")
	}
	if !Bool("on") || Bool("false") {
		t.Fatal("bool")
	}
}

package domain

import "time"

type Category string

const (
	CategoryCoffee    Category = "Coffee"
	CategoryDessert   Category = "Dessert"
	CategoryBakery    Category = "Bakery"
	CategorySpecial   Category = "Special"
	CategoryBreakfast Category = "Breakfast"
)

// Categories lists the menu categories in the order the manager form offers them.
var Categories = []Category{CategoryCoffee, CategoryDessert, CategoryBakery, CategorySpecial, CategoryBreakfast}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type MenuItem struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Image       string   `json:"image"` // absolute URL or server-relative path
	IsAvailable bool     `json:"isAvailable"`
}

type Reservation struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Date           Date      `json:"date"`
	TimeSlot       TimeSlot  `json:"timeSlot"`
	NumberOfGuests int       `json:"numberOfGuests"`
	SpecialNote    string    `json:"specialNote,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Message struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Availability struct {
	Date                Date     `json:"date"`
	TimeSlot            TimeSlot `json:"timeSlot"`
	RemainingSeats      int      `json:"remainingSeats"`
	SeatingLimitPerSlot int      `json:"seatingLimitPerSlot,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Upload is an image file attached to a menu item form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type MenuItemInput struct {
	Name        string
	Description string
	Price       float64
	Category    Category
	IsAvailable bool
	Image       *Upload
}

// MenuItemPatch carries the fields an update changes. When Image is nil and
// RetainImage is set, the backend is told to keep that stored image.
type MenuItemPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *Category
	IsAvailable *bool
	Image       *Upload
	RetainImage string
}

type ReservationInput struct {
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	NumberOfGuests int      `json:"numberOfGuests"`
	Date           Date     `json:"date"`
	TimeSlot       TimeSlot `json:"timeSlot"`
	SpecialNote    string   `json:"specialNote,omitempty"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

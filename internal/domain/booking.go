package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

const DefaultPaymentMethod = "Pay At Hotel"

type Booking struct {
	ID            string        `json:"_id"`
	User          string        `json:"user"`
	Room          string        `json:"room"`
	Hotel         string        `json:"hotel"`
	CheckInDate   time.Time     `json:"checkInDate"`
	CheckOutDate  time.Time     `json:"checkOutDate"`
	TotalPrice    float64       `json:"totalPrice"`
	Guests        int           `json:"guests"`
	Status        BookingStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	IsPaid        bool          `json:"isPaid"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Nights is the number of nights between check-in and check-out, rounded up.
func Nights(in, out time.Time) int {
	d := out.Sub(in)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

type BookingInput struct {
	Room         string    `json:"room" validate:"required"`
	CheckInDate  time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate time.Time `json:"checkOutDate" validate:"required,gtfield=CheckInDate"`
	Guests       int       `json:"guests" validate:"gte=1,lte=20"`
}

type AvailabilityQuery struct {
	Room         string    `json:"room" validate:"required"`
	CheckInDate  time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate time.Time `json:"checkOutDate" validate:"required,gtfield=CheckInDate"`
}

// BookingView resolves room and hotel for listing.
type BookingView struct {
	Booking
	RoomDetails  *Room  `json:"roomDetails,omitempty"`
	HotelDetails *Hotel `json:"hotelDetails,omitempty"`
}

type HotelDashboard struct {
	TotalBookings int           `json:"totalBookings"`
	TotalRevenue  float64       `json:"totalRevenue"`
	Bookings      []BookingView `json:"bookings"`
}

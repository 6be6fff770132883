package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartstay/internal/domain"
)

// users are keyed by the identity-provider subject; everything else by ObjectID.

type userDoc struct {
	ID                   string    `bson:"_id"`
	Email                string    `bson:"email"`
	Username             string    `bson:"username"`
	Image                string    `bson:"image"`
	Role                 string    `bson:"role"`
	RecentSearchedCities []string  `bson:"recentSearchedCities"`
	CreatedAt            time.Time `bson:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

type hotelDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Address   string             `bson:"address"`
	Contact   string             `bson:"contact"`
	City      string             `bson:"city"`
	Owner     string             `bson:"owner"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type roomDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Hotel         string             `bson:"hotel"`
	RoomType      string             `bson:"roomType"`
	PricePerNight float64            `bson:"pricePerNight"`
	Amenities     []string           `bson:"amenities"`
	Images        []string           `bson:"images"`
	IsAvailable   bool               `bson:"isAvailable"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type bookingDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	User          string             `bson:"user"`
	Room          string             `bson:"room"`
	Hotel         string             `bson:"hotel"`
	CheckInDate   time.Time          `bson:"checkInDate"`
	CheckOutDate  time.Time          `bson:"checkOutDate"`
	TotalPrice    float64            `bson:"totalPrice"`
	Guests        int                `bson:"guests"`
	Status        string             `bson:"status"`
	PaymentMethod string             `bson:"paymentMethod"`
	IsPaid        bool               `bson:"isPaid"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func strs(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:                   d.ID,
		Email:                d.Email,
		Username:             d.Username,
		Image:                d.Image,
		Role:                 domain.Role(d.Role),
		RecentSearchedCities: strs(d.RecentSearchedCities),
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func (d hotelDoc) toDomain() domain.Hotel {
	return domain.Hotel{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Address:   d.Address,
		Contact:   d.Contact,
		City:      d.City,
		Owner:     d.Owner,
		CreatedAt: d.CreatedAt,
	}
}

func fromRoom(r domain.Room, id primitive.ObjectID) roomDoc {
	return roomDoc{
		ID:            id,
		Hotel:         r.Hotel,
		RoomType:      r.RoomType,
		PricePerNight: r.PricePerNight,
		Amenities:     strs(r.Amenities),
		Images:        strs(r.Images),
		IsAvailable:   r.IsAvailable,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (d roomDoc) toDomain() domain.Room {
	return domain.Room{
		ID:            d.ID.Hex(),
		Hotel:         d.Hotel,
		RoomType:      d.RoomType,
		PricePerNight: d.PricePerNight,
		Amenities:     strs(d.Amenities),
		Images:        strs(d.Images),
		IsAvailable:   d.IsAvailable,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d bookingDoc) toDomain() domain.Booking {
	return domain.Booking{
		ID:            d.ID.Hex(),
		User:          d.User,
		Room:          d.Room,
		Hotel:         d.Hotel,
		CheckInDate:   d.CheckInDate,
		CheckOutDate:  d.CheckOutDate,
		TotalPrice:    d.TotalPrice,
		Guests:        d.Guests,
		Status:        domain.BookingStatus(d.Status),
		PaymentMethod: d.PaymentMethod,
		IsPaid:        d.IsPaid,
		CreatedAt:     d.CreatedAt,
	}
}

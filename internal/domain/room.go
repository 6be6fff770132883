package domain

import "time"

type Room struct {
	ID            string    `json:"_id"`
	Hotel         string    `json:"hotel"` // hotel id
	RoomType      string    `json:"roomType"`
	PricePerNight float64   `json:"pricePerNight"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images"`
	IsAvailable   bool      `json:"isAvailable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RoomView is a room with its hotel resolved, as returned by list endpoints.
type RoomView struct {
	ID            string    `json:"_id"`
	Hotel         Hotel     `json:"hotel"`
	RoomType      string    `json:"roomType"`
	PricePerNight float64   `json:"pricePerNight"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images"`
	IsAvailable   bool      `json:"isAvailable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewRoomView(r Room, h Hotel) RoomView {
	return RoomView{
		ID:            r.ID,
		Hotel:         h,
		RoomType:      r.RoomType,
		PricePerNight: r.PricePerNight,
		Amenities:     r.Amenities,
		Images:        r.Images,
		IsAvailable:   r.IsAvailable,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// RoomInput is the create/update payload. Images holds files still to be uploaded.
type RoomInput struct {
	RoomType      string   `validate:"required,max=80"`
	PricePerNight float64  `validate:"gt=0"`
	Amenities     []string `validate:"dive,required,max=80"`
	Images        []Upload
}

// Upload is one image file received from a multipart form.
type Upload struct {
	Name string
	Data []byte
}

package domain

import "time"

type Hotel struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Contact   string    `json:"contact"`
	City      string    `json:"city"`
	Owner     string    `json:"owner"` // user id
	CreatedAt time.Time `json:"createdAt"`
}

// HotelInput is the registration payload.
type HotelInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Address string `json:"address" validate:"required,max=240"`
	Contact string `json:"contact" validate:"required,max=40"`
	City    string `json:"city" validate:"required,max=80"`
}

package models

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

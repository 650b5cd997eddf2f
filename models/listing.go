package models

import "time"

// Listing is a bookable property. Only the nightly rate matters to the
// booking flow; catalog management happens elsewhere.
type Listing struct {
	ID            string    `bson:"id" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Location      string    `bson:"location" json:"location"`
	PricePerNight float64   `bson:"price_per_night" json:"price_per_night"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

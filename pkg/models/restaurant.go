package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zip_code" json:"zipCode"`
}

type OpeningHours struct {
	Open  string `bson:"open" json:"open"`
	Close string `bson:"close" json:"close"`
}

type Restaurant struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name" binding:"required"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	Address        Location           `bson:"address" json:"address"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Cuisine        []string           `bson:"cuisine,omitempty" json:"cuisine,omitempty"`
	Categories     []string           `bson:"categories,omitempty" json:"categories,omitempty"`
	Rating         float64            `bson:"rating" json:"rating"`
	TotalRatings   int                `bson:"total_ratings" json:"totalRatings"`
	DeliveryTime   string             `bson:"delivery_time" json:"deliveryTime"`
	MinOrderAmount float64            `bson:"min_order_amount" json:"minOrderAmount"`
	DeliveryFee    float64            `bson:"delivery_fee" json:"deliveryFee"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	OpeningHours   OpeningHours       `bson:"opening_hours" json:"openingHours"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ApplyDefaults fills the values a new restaurant gets when they are omitted.
func (r *Restaurant) ApplyDefaults() {
	if r.DeliveryTime == "" {
		r.DeliveryTime = "30-45 mins"
	}
	if r.OpeningHours.Open == "" {
		r.OpeningHours.Open = "09:00"
	}
	if r.OpeningHours.Close == "" {
		r.OpeningHours.Close = "22:00"
	}
}

type RestaurantFilter struct {
	Search     string
	Categories []string
	MinRating  float64
	City       string
	Active     *bool
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewTarget string

const (
	ReviewRestaurant ReviewTarget = "restaurant"
	ReviewFood       ReviewTarget = "food"
)

type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user" json:"user"`
	UserName   string             `bson:"user_name,omitempty" json:"userName,omitempty"`
	TargetType ReviewTarget       `bson:"target_type" json:"targetType"`
	TargetID   primitive.ObjectID `bson:"target" json:"target"`
	OrderID    primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Rating     int                `bson:"rating" json:"rating"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

type ReviewFilter struct {
	TargetType ReviewTarget
	TargetID   primitive.ObjectID
	UserID     string
}

// RatingSummary is the aggregate written back onto a reviewed restaurant or food item.
type RatingSummary struct {
	Average float64
	Count   int
}

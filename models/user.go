package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account. The password is stored as a bcrypt hash and
// never serialized in responses.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Address is a user's shipping address. Uniqueness is enforced per
// (user, street, city, country).
type Address struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
	Street    string             `bson:"street" json:"street"`
	City      string             `bson:"city" json:"city"`
	Country   string             `bson:"country" json:"country"`
	Phone     string             `bson:"phone" json:"phone"`
}

// PaymentMethod is a stored payment instrument, many per user.
type PaymentMethod struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type     string             `bson:"type" json:"type"`
	Brand    string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Last4    string             `bson:"last4,omitempty" json:"last4,omitempty"`
	ExpMonth int                `bson:"exp_month,omitempty" json:"exp_month,omitempty"`
	ExpYear  int                `bson:"exp_year,omitempty" json:"exp_year,omitempty"`
	Default  bool               `bson:"default" json:"default"`
}

// Wishlist is a per-user set of product ids. Adds go through a single atomic
// $addToSet upsert so concurrent requests can not duplicate entries.
type Wishlist struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     primitive.ObjectID   `bson:"user_id" json:"user_id"`
	ProductIDs []primitive.ObjectID `bson:"product_ids" json:"product_ids"`
}

// BlacklistedToken invalidates an issued JWT before its natural expiry. A TTL
// index on expires_at removes entries once the token would have expired anyway.
type BlacklistedToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TokenID   string             `bson:"token_id" json:"token_id"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

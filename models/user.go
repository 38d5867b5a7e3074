package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleViewer  Role = "viewer"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RolePremium, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID    bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string        `bson:"email" json:"email"`
	Name  string        `bson:"name,omitempty" json:"name,omitempty"`
	Role  Role          `bson:"role" json:"role"`

	// Present only while the user holds a paid subscription. A premium
	// role with a past expiry is demoted on the next read or sweep.
	SubscriptionExpiry *time.Time `bson:"subscriptionExpiry,omitempty" json:"subscriptionExpiry,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SubscriptionPayment records a confirmed purchase. The user document
// carries the resulting role and expiry; this collection is the audit
// trail linking them back to the payment intent.
type SubscriptionPayment struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail       string        `bson:"userEmail" json:"userEmail"`
	Period          string        `bson:"subscriptionPeriod" json:"subscriptionPeriod"`
	Cost            float64       `bson:"subscriptionCost" json:"subscriptionCost"`
	PaymentIntentID string        `bson:"paymentIntentId" json:"paymentIntentId"`
	ExpiresAt       time.Time     `bson:"expiresAt" json:"expiresAt"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}

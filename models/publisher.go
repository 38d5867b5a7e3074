package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Publisher struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	LogoUrl   string        `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ArticleStatus string

const (
	ArticleStatusPending  ArticleStatus = "pending"
	ArticleStatusApproved ArticleStatus = "approved"
	ArticleStatusRejected ArticleStatus = "rejected"
)

type Article struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Slug        string        `bson:"slug" json:"slug"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Content     string        `bson:"content" json:"content"`
	ImageUrl    string        `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Publisher   string        `bson:"publisher,omitempty" json:"publisher,omitempty"`
	Tags        []string      `bson:"tags,omitempty" json:"tags,omitempty"`
	AuthorEmail string        `bson:"authorEmail" json:"authorEmail"`

	// Status is the single source of truth for the review workflow.
	// The approved boolean in API responses is derived from it.
	Status       ArticleStatus `bson:"status" json:"status"`
	RejectReason string        `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`

	IsPremium bool  `bson:"isPremium" json:"isPremium"`
	ViewCount int64 `bson:"viewCount" json:"viewCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (a Article) Approved() bool {
	return a.Status == ArticleStatusApproved
}

// MarshalJSON exposes the approved flag older clients expect, derived
// from the status field rather than stored alongside it.
func (a Article) MarshalJSON() ([]byte, error) {
	type alias Article
	return json.Marshal(struct {
		alias
		ApprovedFlag bool `json:"approved"`
	}{alias(a), a.Approved()})
}

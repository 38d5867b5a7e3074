package database

import (
	"context"
	"fmt"
	"time"

	"github.com/newsdeskhq/newsdesk-backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserStore is the persistence side of the subscription lifecycle. All
// demotions go through conditional updates so that the lazy checks and
// the sweep converge no matter which one runs first.
type UserStore struct {
	store *Store
}

func NewUserStore(store *Store) *UserStore {
	return &UserStore{store: store}
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.store.Collection(UsersCollection).
		FindOne(ctx, bson.M{"email": email}).
		Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates a viewer record on first contact. For a known email
// the stored document comes back untouched, role and timestamp included.
func (u *UserStore) Upsert(ctx context.Context, email, name string, now time.Time) (*models.User, error) {
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":     email,
			"name":      name,
			"role":      models.RoleViewer,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	if err := u.store.Collection(UsersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", email, err)
	}
	return &user, nil
}

func (u *UserStore) SetPremium(ctx context.Context, email string, expiry time.Time) error {
	res, err := u.store.Collection(UsersCollection).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"role":               models.RolePremium,
			"subscriptionExpiry": expiry,
		}},
	)
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set premium: no user with email %s", email)
	}
	return nil
}

// DemoteIfExpired demotes a single user, but only while the stored
// document still shows an expired premium subscription. Reports whether
// a write happened.
func (u *UserStore) DemoteIfExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	res, err := u.store.Collection(UsersCollection).UpdateOne(ctx,
		bson.M{
			"email":              email,
			"role":               models.RolePremium,
			"subscriptionExpiry": bson.M{"$lte": now},
		},
		demotionUpdate(),
	)
	if err != nil {
		return false, fmt.Errorf("demote %s: %w", email, err)
	}
	return res.ModifiedCount > 0, nil
}

// DemoteAllExpired is the sweep's batch form of DemoteIfExpired.
func (u *UserStore) DemoteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := u.store.Collection(UsersCollection).UpdateMany(ctx,
		bson.M{
			"role":               models.RolePremium,
			"subscriptionExpiry": bson.M{"$lte": now},
		},
		demotionUpdate(),
	)
	if err != nil {
		return 0, fmt.Errorf("demote expired: %w", err)
	}
	return res.ModifiedCount, nil
}

func (u *UserStore) InsertPayment(ctx context.Context, payment models.SubscriptionPayment) error {
	_, err := u.store.Collection(SubscriptionsCollection).InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("insert subscription payment: %w", err)
	}
	return nil
}

func demotionUpdate() bson.M {
	return bson.M{
		"$set":   bson.M{"role": models.RoleViewer},
		"$unset": bson.M{"subscriptionExpiry": ""},
	}
}

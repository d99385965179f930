package subscriptionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotpass/database"
	"slotpass/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionRepository stores owner platform subscriptions.
type SubscriptionRepository interface {
	Insert(ctx context.Context, s *models.OwnerSubscription) error
	GetActiveForOwner(ctx context.Context, ownerID string, now time.Time) (*models.OwnerSubscription, error)
}

// MongoSubscriptionRepo implements SubscriptionRepository using MongoDB.
type MongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo constructs a new instance of MongoSubscriptionRepo.
func NewMongoSubscriptionRepo() *MongoSubscriptionRepo {
	return &MongoSubscriptionRepo{coll: database.DB().Collection("owner_subscriptions")}
}

func (r *MongoSubscriptionRepo) Insert(ctx context.Context, s *models.OwnerSubscription) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert subscription failed: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) GetActiveForOwner(ctx context.Context, ownerID string, now time.Time) (*models.OwnerSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"owner_id":   ownerID,
		"status":     models.SubscriptionActive,
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "expires_at", Value: -1}})

	var sub models.OwnerSubscription
	err := r.coll.FindOne(ctx, filter, opts).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching subscription for owner %s: %w", ownerID, err)
	}
	return &sub, nil
}

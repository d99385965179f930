package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the slot template constraints. Capacity slot indexes
// are owned by the reservation repository, which shares the collection.
func (r *MongoSlotRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	templateIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "facility_id", Value: 1}, {Key: "slot_type", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_facility_slot_type"),
		},
		{
			Keys:    bson.D{{Key: "valid_till", Value: 1}},
			Options: options.Index().SetName("valid_till_idx"),
		},
	}
	if _, err := r.templateColl.Indexes().CreateMany(ctx, templateIndexes); err != nil {
		return fmt.Errorf("failed to create slot template indexes: %w", err)
	}
	return nil
}

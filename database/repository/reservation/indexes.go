package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the uniqueness constraints the reservation engine
// leans on: one booking per idempotency key, one active booking per
// (user, facility, slot type), one capacity row per (facility, date, slot
// type), one attendance per (booking, date).
func (r *MongoReservationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_idempotency_key"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "facility_id", Value: 1}, {Key: "slot_type", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("user_facility_slot_status_idx"),
		},
		{
			// Two snapshot-isolated creates can both read "no active booking"
			// and commit without a write conflict; this index turns the
			// second insert into a duplicate-key error instead.
			Keys: bson.D{{Key: "active_key", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"active_key": bson.M{"$exists": true}}).
				SetName("unique_active_key"),
		},
	}
	if _, err := r.bookingColl.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	slotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "facility_id", Value: 1}, {Key: "date", Value: 1}, {Key: "slot_type", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_facility_date_slot"),
		},
	}
	if _, err := r.slotColl.Indexes().CreateMany(ctx, slotIndexes); err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}

	attendanceIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_booking_date"),
		},
	}
	if _, err := r.attendanceColl.Indexes().CreateMany(ctx, attendanceIndexes); err != nil {
		return fmt.Errorf("failed to create attendance indexes: %w", err)
	}

	return nil
}

package holidayRepo

import (
	"context"
	"fmt"
	"time"

	"slotpass/database"
	"slotpass/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HolidayRepository stores closed date ranges per facility.
type HolidayRepository interface {
	Create(ctx context.Context, h *models.Holiday) error
	Delete(ctx context.Context, facilityID, startDate, endDate string) error
	Overlaps(ctx context.Context, facilityID, startDate, endDate string) (bool, error)
	RangesForFacility(ctx context.Context, facilityID string) ([]models.Holiday, error)
}

// MongoHolidayRepo implements HolidayRepository using MongoDB.
type MongoHolidayRepo struct {
	coll *mongo.Collection
}

// NewMongoHolidayRepo constructs a new instance of MongoHolidayRepo.
func NewMongoHolidayRepo() *MongoHolidayRepo {
	return &MongoHolidayRepo{coll: database.DB().Collection("holidays")}
}

func (r *MongoHolidayRepo) Create(ctx context.Context, h *models.Holiday) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("insert holiday failed: %w", err)
	}
	return nil
}

func (r *MongoHolidayRepo) Delete(ctx context.Context, facilityID, startDate, endDate string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"facility_id": facilityID, "start_date": startDate, "end_date": endDate}
	if _, err := r.coll.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete holiday failed: %w", err)
	}
	return nil
}

func (r *MongoHolidayRepo) Overlaps(ctx context.Context, facilityID, startDate, endDate string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Two inclusive ranges overlap when each starts before the other ends.
	filter := bson.M{
		"facility_id": facilityID,
		"start_date":  bson.M{"$lte": endDate},
		"end_date":    bson.M{"$gte": startDate},
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking holiday overlap: %w", err)
	}
	return count > 0, nil
}

func (r *MongoHolidayRepo) RangesForFacility(ctx context.Context, facilityID string) ([]models.Holiday, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"facility_id": facilityID})
	if err != nil {
		return nil, fmt.Errorf("error listing holidays: %w", err)
	}
	defer cursor.Close(ctx)

	var holidays []models.Holiday
	if err := cursor.All(ctx, &holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

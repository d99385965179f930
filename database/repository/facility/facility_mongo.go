package facilityRepo

import (
	"context"
	"errors"
	"time"

	"slotpass/database"
	"slotpass/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no facility matches.
var ErrNotFound = errors.New("facility not found")

// FacilityRepository exposes the capability projection the booking engine
// reads; facility lifecycle is owned elsewhere.
type FacilityRepository interface {
	GetByID(ctx context.Context, facilityID string) (*models.Facility, error)
}

// MongoFacilityRepo implements FacilityRepository using MongoDB.
type MongoFacilityRepo struct {
	coll *mongo.Collection
}

// NewMongoFacilityRepo constructs a new instance of MongoFacilityRepo.
func NewMongoFacilityRepo() *MongoFacilityRepo {
	return &MongoFacilityRepo{coll: database.DB().Collection("facilities")}
}

func (r *MongoFacilityRepo) GetByID(ctx context.Context, facilityID string) (*models.Facility, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var facility models.Facility
	if err := r.coll.FindOne(ctx, bson.M{"id": facilityID}).Decode(&facility); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &facility, nil
}

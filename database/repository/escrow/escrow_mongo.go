package escrowRepo

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

// ErrExists is returned when an escrow is already held for the booking.
var ErrExists = errors.New("escrow already exists for booking")

// EscrowRepository stores per-booking holds. Status transitions are
// compare-and-swap: the update filter names the statuses the transition is
// legal from, so two concurrent settlers can never both win. The release
// sweep claims rows the same way, which is what makes it non-blocking.
type EscrowRepository interface {
	Insert(ctx context.Context, e *models.Escrow) error
	GetByID(ctx context.Context, escrowID string) (*models.Escrow, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Escrow, error)

	// TransitionStatus moves the escrow from any of the given statuses to the
	// target, reporting whether the swap won.
	TransitionStatus(ctx context.Context, escrowID string, from []string, to string, releasedAt *time.Time) (bool, error)

	// ListDue returns HELD escrows whose release date has passed.
	ListDue(ctx context.Context, today string, limit int64) ([]models.Escrow, error)

	ListByOwner(ctx context.Context, ownerID string) ([]models.Escrow, error)
}

// MongoEscrowRepo implements EscrowRepository using MongoDB.
type MongoEscrowRepo struct {
	coll *mongo.Collection
}

// NewMongoEscrowRepo constructs a new instance of MongoEscrowRepo.
func NewMongoEscrowRepo() *MongoEscrowRepo {
	return &MongoEscrowRepo{coll: database.DB().Collection("escrows")}
}

func (r *MongoEscrowRepo) Insert(ctx context.Context, e *models.Escrow) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrExists
		}
		return fmt.Errorf("insert escrow failed: %w", err)
	}
	return nil
}

func (r *MongoEscrowRepo) GetByID(ctx context.Context, escrowID string) (*models.Escrow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var escrow models.Escrow
	err := r.coll.FindOne(ctx, bson.M{"id": escrowID}).Decode(&escrow)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching escrow %s: %w", escrowID, err)
	}
	return &escrow, nil
}

func (r *MongoEscrowRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Escrow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var escrow models.Escrow
	err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&escrow)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching escrow for booking %s: %w", bookingID, err)
	}
	return &escrow, nil
}

func (r *MongoEscrowRepo) TransitionStatus(ctx context.Context, escrowID string, from []string, to string, releasedAt *time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": escrowID, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updated_at": time.Now()}
	if releasedAt != nil {
		set["released_at"] = *releasedAt
	}
	update := bson.M{"$set": set}
	if releasedAt == nil && to != models.EscrowReleased {
		update["$unset"] = bson.M{"released_at": ""}
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error transitioning escrow %s: %w", escrowID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoEscrowRepo) ListDue(ctx context.Context, today string, limit int64) ([]models.Escrow, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":       models.EscrowHeld,
		"release_date": bson.M{"$lte": today},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error listing due escrows: %w", err)
	}
	defer cursor.Close(ctx)

	var escrows []models.Escrow
	if err := cursor.All(ctx, &escrows); err != nil {
		return nil, err
	}
	return escrows, nil
}

func (r *MongoEscrowRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Escrow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("error listing owner escrows: %w", err)
	}
	defer cursor.Close(ctx)

	var escrows []models.Escrow
	if err := cursor.All(ctx, &escrows); err != nil {
		return nil, err
	}
	return escrows, nil
}

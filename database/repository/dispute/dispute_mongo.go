package disputeRepo

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

// DisputeRepository stores disputes plus the user trust bookkeeping dispute
// resolution drives.
type DisputeRepository interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Insert(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, disputeID string) (*models.Dispute, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Dispute, error)
	HasActiveDispute(ctx context.Context, bookingID string) (bool, error)

	// Resolve swaps an active dispute to a resolved status; reports whether
	// the swap won.
	Resolve(ctx context.Context, disputeID, status, adminDecision string, refundAmount *int64) (bool, error)

	CountRejectedByUser(ctx context.Context, userID string) (int64, error)
	AdjustTrustScore(ctx context.Context, userID string, delta int) error
	FlagAccountIfActive(ctx context.Context, userID, status string) error
}

// MongoDisputeRepo implements DisputeRepository using MongoDB.
type MongoDisputeRepo struct {
	coll     *mongo.Collection
	userColl *mongo.Collection
}

// NewMongoDisputeRepo constructs a new instance of MongoDisputeRepo.
func NewMongoDisputeRepo() *MongoDisputeRepo {
	db := database.DB()
	return &MongoDisputeRepo{
		coll:     db.Collection("disputes"),
		userColl: db.Collection("users"),
	}
}

func (r *MongoDisputeRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoDisputeRepo) Insert(ctx context.Context, d *models.Dispute) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert dispute failed: %w", err)
	}
	return nil
}

func (r *MongoDisputeRepo) GetByID(ctx context.Context, disputeID string) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.coll.FindOne(ctx, bson.M{"id": disputeID}).Decode(&dispute)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching dispute %s: %w", disputeID, err)
	}
	return &dispute, nil
}

func (r *MongoDisputeRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Dispute, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var dispute models.Dispute
	err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID}, opts).Decode(&dispute)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching dispute for booking %s: %w", bookingID, err)
	}
	return &dispute, nil
}

func (r *MongoDisputeRepo) HasActiveDispute(ctx context.Context, bookingID string) (bool, error) {
	filter := bson.M{
		"booking_id": bookingID,
		"status":     bson.M{"$in": []string{models.DisputeSubmitted, models.DisputeUnderReview}},
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking active dispute: %w", err)
	}
	return count > 0, nil
}

func (r *MongoDisputeRepo) Resolve(ctx context.Context, disputeID, status, adminDecision string, refundAmount *int64) (bool, error) {
	filter := bson.M{
		"id":     disputeID,
		"status": bson.M{"$in": []string{models.DisputeSubmitted, models.DisputeUnderReview}},
	}
	now := time.Now()
	set := bson.M{
		"status":         status,
		"admin_decision": adminDecision,
		"resolved_at":    now,
	}
	if refundAmount != nil {
		set["refund_amount"] = *refundAmount
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("error resolving dispute %s: %w", disputeID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoDisputeRepo) CountRejectedByUser(ctx context.Context, userID string) (int64, error) {
	filter := bson.M{"user_id": userID, "status": models.DisputeRejected}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting rejected disputes: %w", err)
	}
	return count, nil
}

func (r *MongoDisputeRepo) AdjustTrustScore(ctx context.Context, userID string, delta int) error {
	update := bson.M{"$inc": bson.M{"trust_score": delta}}
	if _, err := r.userColl.UpdateOne(ctx, bson.M{"id": userID}, update); err != nil {
		return fmt.Errorf("error adjusting trust score: %w", err)
	}
	return nil
}

func (r *MongoDisputeRepo) FlagAccountIfActive(ctx context.Context, userID, status string) error {
	filter := bson.M{"id": userID, "account_status": models.AccountActive}
	update := bson.M{"$set": bson.M{"account_status": status}}
	if _, err := r.userColl.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("error flagging account: %w", err)
	}
	return nil
}

package paymentRepo

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
)

// ErrOrderExists is returned when the gateway order id is already recorded.
var ErrOrderExists = errors.New("payment order already exists")

// PaymentRepository stores gateway orders and their capture state. The
// capture/failure swaps are filter-guarded so an at-least-once webhook can
// be replayed safely.
type PaymentRepository interface {
	// RunInTransaction executes fn inside one unit of work spanning payment,
	// booking and escrow mutations driven by a webhook.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Insert(ctx context.Context, p *models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetByEntity(ctx context.Context, entityType, entityID string) (*models.Payment, error)

	// MarkCaptured swaps PENDING -> CAPTURED, recording the gateway payment
	// id and method; reports whether the swap won.
	MarkCaptured(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error)

	// MarkFailed swaps PENDING -> FAILED; reports whether the swap won.
	MarkFailed(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error)

	// MarkRefunded records a completed gateway refund.
	MarkRefunded(ctx context.Context, orderID, refundID string) error

	// RebindEntity repoints a payment from a placeholder entity id to the
	// entity created at capture (subscriptions).
	RebindEntity(ctx context.Context, orderID, entityID string) error
}

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo constructs a new instance of MongoPaymentRepo.
func NewMongoPaymentRepo() *MongoPaymentRepo {
	return &MongoPaymentRepo{coll: database.DB().Collection("payments")}
}

func (r *MongoPaymentRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
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

func (r *MongoPaymentRepo) Insert(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("insert payment failed: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.coll.FindOne(ctx, bson.M{"gateway_order_id": orderID}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching payment for order %s: %w", orderID, err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) GetByEntity(ctx context.Context, entityType, entityID string) (*models.Payment, error) {
	var payment models.Payment
	filter := bson.M{"entity_type": entityType, "entity_id": entityID}
	err := r.coll.FindOne(ctx, filter).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching payment for %s %s: %w", entityType, entityID, err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) MarkCaptured(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error) {
	filter := bson.M{"gateway_order_id": orderID, "status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"status":             models.PaymentCaptured,
		"gateway_payment_id": gatewayPaymentID,
		"method":             method,
		"updated_at":         time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error capturing payment %s: %w", orderID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoPaymentRepo) MarkFailed(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error) {
	filter := bson.M{"gateway_order_id": orderID, "status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"status":             models.PaymentFailed,
		"gateway_payment_id": gatewayPaymentID,
		"method":             method,
		"updated_at":         time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error failing payment %s: %w", orderID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoPaymentRepo) MarkRefunded(ctx context.Context, orderID, refundID string) error {
	update := bson.M{"$set": bson.M{
		"status":             models.PaymentRefunded,
		"metadata.refund_id": refundID,
		"updated_at":         time.Now(),
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"gateway_order_id": orderID}, update); err != nil {
		return fmt.Errorf("error marking payment refunded: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) RebindEntity(ctx context.Context, orderID, entityID string) error {
	update := bson.M{"$set": bson.M{"entity_id": entityID, "updated_at": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"gateway_order_id": orderID}, update); err != nil {
		return fmt.Errorf("error rebinding payment entity: %w", err)
	}
	return nil
}

package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotpass/database"
	"slotpass/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReservationRepo implements ReservationRepository using MongoDB. The
// multi-document booking walk relies on session transactions plus
// filter-guarded updates: a concurrent writer that would break the capacity
// invariant simply fails to match, and the transaction aborts as a whole.
type MongoReservationRepo struct {
	bookingColl    *mongo.Collection
	slotColl       *mongo.Collection
	templateColl   *mongo.Collection
	holidayColl    *mongo.Collection
	facilityColl   *mongo.Collection
	attendanceColl *mongo.Collection
}

// NewMongoReservationRepo constructs a new instance of MongoReservationRepo.
func NewMongoReservationRepo() *MongoReservationRepo {
	db := database.DB()
	return &MongoReservationRepo{
		bookingColl:    db.Collection("bookings"),
		slotColl:       db.Collection("facility_slots"),
		templateColl:   db.Collection("slot_templates"),
		holidayColl:    db.Collection("holidays"),
		facilityColl:   db.Collection("facilities"),
		attendanceColl: db.Collection("attendance"),
	}
}

func (r *MongoReservationRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.bookingColl.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoReservationRepo) GetFacility(ctx context.Context, facilityID string) (*models.Facility, error) {
	var facility models.Facility
	err := r.facilityColl.FindOne(ctx, bson.M{"id": facilityID}).Decode(&facility)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching facility %s: %w", facilityID, err)
	}
	return &facility, nil
}

func (r *MongoReservationRepo) GetTemplate(ctx context.Context, facilityID, slotType string) (*models.SlotTemplate, error) {
	var tmpl models.SlotTemplate
	filter := bson.M{"facility_id": facilityID, "slot_type": slotType}
	err := r.templateColl.FindOne(ctx, filter).Decode(&tmpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching slot template: %w", err)
	}
	return &tmpl, nil
}

func (r *MongoReservationRepo) IsHoliday(ctx context.Context, facilityID, date string) (bool, error) {
	filter := bson.M{
		"facility_id": facilityID,
		"start_date":  bson.M{"$lte": date},
		"end_date":    bson.M{"$gte": date},
	}
	count, err := r.holidayColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking holiday: %w", err)
	}
	return count > 0, nil
}

func (r *MongoReservationRepo) HasActiveBooking(ctx context.Context, userID, facilityID, slotType string) (bool, error) {
	filter := bson.M{
		"user_id":     userID,
		"facility_id": facilityID,
		"slot_type":   slotType,
		"status":      bson.M{"$in": []string{models.BookingPending, models.BookingAccepted, models.BookingActive}},
	}
	count, err := r.bookingColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking active booking: %w", err)
	}
	return count > 0, nil
}

func (r *MongoReservationRepo) IncrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error {
	filter := bson.M{
		"facility_id": facilityID,
		"date":        date,
		"slot_type":   slotType,
		"$expr":       bson.M{"$lt": bson.A{"$booked", "$capacity"}},
	}
	res, err := r.slotColl.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked": 1}})
	if err != nil {
		return fmt.Errorf("error incrementing slot: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a never-materialized slot from a full one.
		exists, err := r.slotExists(ctx, facilityID, date, slotType)
		if err != nil {
			return err
		}
		if !exists {
			return ErrSlotNotFound
		}
		return ErrSlotFull
	}
	return nil
}

func (r *MongoReservationRepo) slotExists(ctx context.Context, facilityID, date, slotType string) (bool, error) {
	filter := bson.M{"facility_id": facilityID, "date": date, "slot_type": slotType}
	count, err := r.slotColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking slot existence: %w", err)
	}
	return count > 0, nil
}

func (r *MongoReservationRepo) DecrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error {
	filter := bson.M{
		"facility_id": facilityID,
		"date":        date,
		"slot_type":   slotType,
		"booked":      bson.M{"$gt": 0},
	}
	if _, err := r.slotColl.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked": -1}}); err != nil {
		return fmt.Errorf("error decrementing slot: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if _, err := r.bookingColl.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "unique_active_key") {
				return ErrDuplicateActive
			}
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (r *MongoReservationRepo) GetUserBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.bookingColl.FindOne(ctx, bson.M{"id": bookingID, "user_id": userID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (r *MongoReservationRepo) GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	var booking models.Booking
	err := r.bookingColl.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking by idempotency key: %w", err)
	}
	return &booking, nil
}

func (r *MongoReservationRepo) UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to string) (bool, error) {
	filter := bson.M{"id": bookingID}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	// Pipeline update so active_key tracks the status in the same write:
	// present while the booking is active, absent once it is not.
	activeKey := interface{}("$$REMOVE")
	if models.ActiveBookingStatus(to) {
		activeKey = bson.M{"$concat": bson.A{"$user_id", "|", "$facility_id", "|", "$slot_type"}}
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":     to,
			"updated_at": time.Now(),
			"active_key": activeKey,
		}}},
	}
	res, err := r.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error updating booking status: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoReservationRepo) HasAttendance(ctx context.Context, bookingID string) (bool, error) {
	count, err := r.attendanceColl.CountDocuments(ctx, bson.M{"booking_id": bookingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking attendance: %w", err)
	}
	return count > 0, nil
}

func (r *MongoReservationRepo) HasAttendanceOn(ctx context.Context, bookingID, date string) (bool, error) {
	filter := bson.M{"booking_id": bookingID, "date": date}
	count, err := r.attendanceColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking attendance: %w", err)
	}
	return count > 0, nil
}

func (r *MongoReservationRepo) InsertAttendance(ctx context.Context, att *models.Attendance) error {
	if _, err := r.attendanceColl.InsertOne(ctx, att); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyMarked
		}
		return fmt.Errorf("insert attendance failed: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) ConsumePassDay(ctx context.Context, bookingID string) (int, error) {
	filter := bson.M{"id": bookingID, "active_days_remaining": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"active_days_remaining": -1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := r.bookingColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNoActivePass
	}
	if err != nil {
		return 0, fmt.Errorf("error consuming pass day: %w", err)
	}
	return booking.ActiveDaysRemaining, nil
}
